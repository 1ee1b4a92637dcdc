package domain

import (
	"fmt"
	"time"
)

// for debug
func (p *Post) String() string {
	s := fmt.Sprintf("[id:%s, text:%s, sage:%v, created:%s, thread_id:%s, attachments:[",
		p.Id, p.Message, p.IsSageEnabled, p.CreatedAt.Format(time.StampMilli), p.ThreadId)
	for i, atch := range p.Attachments {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s (%s, %d bytes)", atch.FileName, atch.Kind, atch.SizeBytes)
	}
	return s + "]]"
}

func (t *Thread) String() string {
	s := fmt.Sprintf("[title:%s, category:%s, bump:%d/%d, posts:%d, last_bumped:%v, posts:[",
		t.Title, t.CategoryAlias, t.BumpCount, t.BumpLimit, t.PostCount, t.LastBumpedAt)
	for i, post := range t.Posts {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%v", post)
	}
	return s + "]]\n"
}

func (s BanScope) String() string {
	if s.global {
		return "site-wide"
	}
	return "category " + s.category.String()
}
