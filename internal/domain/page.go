package domain

import "time"

// Page is a window into an ordered result set. Total is computed over the
// full matching set, independent of the window.
type Page[T any] struct {
	Items      []T
	PageNumber int
	PageSize   int
	Total      int
}

// PostSummary is a search result row: a post together with just enough of
// its thread and category to render a link.
type PostSummary struct {
	Id                  PostId
	ThreadId            ThreadId
	ThreadTitle         ThreadTitle
	CategoryAlias       CategoryAlias
	Message             string
	IsSageEnabled       bool
	IsOpeningPost       bool
	CreatedAt           time.Time
	ThreadLocalUserHash string
}

// ThreadSummary is a thread-list row.
type ThreadSummary struct {
	Id            ThreadId
	CategoryAlias CategoryAlias
	Title         ThreadTitle
	PostCount     int
	BumpCount     int
	BumpLimit     int
	IsClosed      bool
	IsPinned      bool
	LastBumpedAt  time.Time
	CreatedAt     time.Time
}
