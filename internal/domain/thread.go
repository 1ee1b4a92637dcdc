package domain

import (
	"time"
)

// to iterate thru layers: handler -> engine -> storage
type ThreadCreationData struct {
	Title         ThreadTitle
	CategoryAlias CategoryAlias
	OpPost        PostCreationData
}

type ThreadMetadata struct {
	Id            ThreadId
	CategoryId    CategoryId
	CategoryAlias CategoryAlias
	Title         ThreadTitle

	// BumpLimit is copied from the category default at creation and fixed
	// afterwards. BumpCount never decreases and never exceeds BumpLimit.
	BumpLimit int
	BumpCount int

	// PostCount is the uncapped display counter; it keeps growing after the
	// thread is bump-saturated.
	PostCount int

	IsClosed                bool
	IsPinned                bool
	ShowThreadLocalUserHash bool
	LastBumpedAt            time.Time
	CreatedAt               time.Time
	IsDeleted               bool
}

// Saturated reports whether the thread has used its full bump allowance.
func (t *ThreadMetadata) Saturated() bool {
	return t.BumpCount >= t.BumpLimit
}

type Thread struct {
	ThreadMetadata
	Posts []*Post
}
