package engine

import (
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
)

// BumpResult is the thread ordering state after admitting one post.
type BumpResult struct {
	BumpCount    int
	LastBumpedAt time.Time
	Saturated    bool
}

// ApplyBump computes a thread's new bump state for a single post. Pure and
// total; closed threads must be rejected before this is called.
//
// Sage posts never advance BumpCount or LastBumpedAt. Non-sage posts
// increment BumpCount and move LastBumpedAt to the post's creation time
// until the thread reaches its bump limit; after that the thread is
// saturated and its ordering key is frozen. BumpCount tracks bumps used,
// not posts received, so it is capped at BumpLimit.
func ApplyBump(thread *domain.ThreadMetadata, isSageEnabled bool, at time.Time) BumpResult {
	result := BumpResult{
		BumpCount:    thread.BumpCount,
		LastBumpedAt: thread.LastBumpedAt,
		Saturated:    thread.Saturated(),
	}
	if isSageEnabled || result.Saturated {
		return result
	}

	result.BumpCount++
	result.LastBumpedAt = at
	result.Saturated = result.BumpCount >= thread.BumpLimit
	return result
}
