package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/kotoba-dev/kotoba/internal/domain"
)

// ListingService is the read-side contract consumed by handlers.
// to mock service in tests
type ListingService interface {
	Search(ctx context.Context, query string, page int) (domain.Page[domain.PostSummary], error)
	ListThreads(ctx context.Context, categoryAlias domain.CategoryAlias, page int) (domain.Page[domain.ThreadSummary], error)
}

// ListingStore supplies snapshots for the projector. SearchCandidates may
// overshoot (e.g. return every post of a title-matching thread); the
// projector applies the exact predicate. Soft-deleted rows are never
// returned.
type ListingStore interface {
	SearchCandidates(ctx context.Context, query string) ([]domain.PostSummary, error)
	ThreadsInCategory(ctx context.Context, categoryId domain.CategoryId) ([]domain.ThreadSummary, error)
	GetCategoryByAlias(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error)
}

type Listing struct {
	store          ListingStore
	searchPageSize int
	threadsPerPage int
}

func NewListing(store ListingStore, searchPageSize, threadsPerPage int) *Listing {
	return &Listing{store: store, searchPageSize: searchPageSize, threadsPerPage: threadsPerPage}
}

// Search returns one page of the combined "latest relevant post" result
// set, newest first. A post matches if its message contains the query, or
// if it is the chronologically first post of a thread whose title contains
// the query, so the opening post of a title-matching thread is surfaced
// even when its own message does not contain the query. Matching is
// case-sensitive substring containment.
func (l *Listing) Search(ctx context.Context, query string, page int) (domain.Page[domain.PostSummary], error) {
	page = max(1, page)

	candidates, err := l.store.SearchCandidates(ctx, query)
	if err != nil {
		return domain.Page[domain.PostSummary]{}, err
	}

	matching := candidates[:0:0]
	for _, post := range candidates {
		if MatchesSearch(post, query) {
			matching = append(matching, post)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	return paginate(matching, page, l.searchPageSize), nil
}

// MatchesSearch is the search predicate, kept as a standalone function so
// storage implementations can mirror it in SQL.
func MatchesSearch(post domain.PostSummary, query string) bool {
	if strings.Contains(post.Message, query) {
		return true
	}
	return post.IsOpeningPost && strings.Contains(post.ThreadTitle, query)
}

// ListThreads returns one page of a category's threads: pinned first, then
// by last bump descending. Saturated and sage-only threads sink naturally
// as new posts stop advancing their ordering key.
func (l *Listing) ListThreads(ctx context.Context, categoryAlias domain.CategoryAlias, page int) (domain.Page[domain.ThreadSummary], error) {
	page = max(1, page)

	category, err := l.store.GetCategoryByAlias(ctx, categoryAlias)
	if err != nil {
		return domain.Page[domain.ThreadSummary]{}, err
	}

	threads, err := l.store.ThreadsInCategory(ctx, category.Id)
	if err != nil {
		return domain.Page[domain.ThreadSummary]{}, err
	}

	SortThreads(threads)
	return paginate(threads, page, l.threadsPerPage), nil
}

// SortThreads orders a thread list in place: IsPinned desc, LastBumpedAt
// desc, ties broken by CreatedAt desc.
func SortThreads(threads []domain.ThreadSummary) {
	sort.SliceStable(threads, func(i, j int) bool {
		a, b := threads[i], threads[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !a.LastBumpedAt.Equal(b.LastBumpedAt) {
			return a.LastBumpedAt.After(b.LastBumpedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func paginate[T any](items []T, page, pageSize int) domain.Page[T] {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := min(start+pageSize, total)

	return domain.Page[T]{
		Items:      items[start:end],
		PageNumber: page,
		PageSize:   pageSize,
		Total:      total,
	}
}
