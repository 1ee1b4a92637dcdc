package domain

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type (
	BoardId      = uuid.UUID
	CategoryId   = uuid.UUID
	ThreadId     = uuid.UUID
	PostId       = uuid.UUID
	BanId        = uuid.UUID
	NoticeId     = uuid.UUID
	AttachmentId = uuid.UUID

	CategoryAlias = string
	CategoryName  = string
	ThreadTitle   = string

	// Moderators is stored as a text[] column, hence the pq type.
	Moderators = pq.StringArray
)

// MaxMessageLength caps a post's message body.
const MaxMessageLength = 8000
