package domain

import (
	"time"
)

// to iterate thru layers: handler -> engine -> storage
type PostCreationData struct {
	ThreadId      ThreadId
	Message       string
	IsSageEnabled bool
	UserIpAddress string
	UserAgent     string
}

type Post struct {
	Id            PostId
	ThreadId      ThreadId
	Message       string
	IsSageEnabled bool
	UserIpAddress string
	UserAgent     string
	CreatedAt     time.Time
	ModifiedAt    time.Time
	IsDeleted     bool
	Attachments   []*Attachment
	Notices       []*Notice
}

// Notice is a moderator annotation attached to a post.
type Notice struct {
	Id        NoticeId
	PostId    PostId
	Author    string
	Text      string
	CreatedAt time.Time
}
