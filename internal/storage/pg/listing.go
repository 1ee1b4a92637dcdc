package pg

import (
	"context"
	"fmt"

	"github.com/kotoba-dev/kotoba/internal/domain"
)

// SearchCandidates returns posts whose message contains the query plus all
// opening posts of threads whose title contains it, newest first. strpos is
// case-sensitive, matching the projector's predicate; the projector re-checks
// every candidate, so this only needs to be a superset.
func (s *Storage) SearchCandidates(ctx context.Context, query string) ([]domain.PostSummary, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.thread_id, t.title, c.alias, p.message, p.is_sage_enabled, p.is_opening_post, p.created_at
		FROM posts p
		JOIN threads t ON t.id = p.thread_id
		JOIN categories c ON c.id = t.category_id
		WHERE NOT p.is_deleted AND NOT t.is_deleted AND NOT c.is_deleted
		  AND (strpos(p.message, $1) > 0 OR (p.is_opening_post AND strpos(t.title, $1) > 0))
		ORDER BY p.created_at DESC`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query search candidates: %w", err)
	}
	defer rows.Close()

	var posts []domain.PostSummary
	for rows.Next() {
		var p domain.PostSummary
		if err := rows.Scan(
			&p.Id, &p.ThreadId, &p.ThreadTitle, &p.CategoryAlias,
			&p.Message, &p.IsSageEnabled, &p.IsOpeningPost, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search candidate: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search candidates: %w", err)
	}
	return posts, nil
}
