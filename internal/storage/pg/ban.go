package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
)

// Bans store their scope as a nullable category_id: NULL means site-wide.
// Addresses are stored as canonical strings and parsed on read; range
// comparison happens in Go where netip gives the family-aware ordering.

func (s *Storage) CreateBan(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
	var categoryId uuid.NullUUID
	if id, ok := data.Scope.Category(); ok {
		categoryId = uuid.NullUUID{UUID: id, Valid: true}
	}

	var id domain.BanId
	err := s.db.QueryRow(`
		INSERT INTO bans(category_id, lower_ip, upper_ip, start_at, end_at, reason, related_post_id)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		categoryId, data.LowerIpAddress.String(), data.UpperIpAddress.String(),
		data.Start, data.End, data.Reason, relatedPostId(data.RelatedPostId),
	).Scan(&id)
	if err != nil {
		return domain.BanId{}, fmt.Errorf("failed to insert ban: %w", err)
	}
	return id, nil
}

func relatedPostId(id *domain.PostId) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (s *Storage) SoftDeleteBan(ctx context.Context, banId domain.BanId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE bans SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted",
			banId,
		)
		if err != nil {
			return fmt.Errorf("failed to delete ban: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		}
		if affected == 0 {
			return internal_errors.NotFound
		}
		return nil
	})
}

// ActiveBansFor narrows the ban set in SQL to rows whose window covers the
// instant and whose scope is site-wide or the given category. The address
// range check stays with the caller.
func (s *Storage) ActiveBansFor(ctx context.Context, categoryId domain.CategoryId, at time.Time) ([]domain.Ban, error) {
	rows, err := s.db.Query(`
		SELECT id, category_id, lower_ip, upper_ip, start_at, end_at, reason, related_post_id, created_at, is_deleted
		FROM bans
		WHERE NOT is_deleted
		  AND start_at <= $2 AND end_at > $2
		  AND (category_id IS NULL OR category_id = $1)`,
		categoryId, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bans: %w", err)
	}
	defer rows.Close()
	return scanBans(rows)
}

func (s *Storage) ListBans(ctx context.Context) ([]domain.Ban, error) {
	rows, err := s.db.Query(`
		SELECT id, category_id, lower_ip, upper_ip, start_at, end_at, reason, related_post_id, created_at, is_deleted
		FROM bans
		WHERE NOT is_deleted
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bans: %w", err)
	}
	defer rows.Close()
	return scanBans(rows)
}

func scanBans(rows *sql.Rows) ([]domain.Ban, error) {
	var bans []domain.Ban
	for rows.Next() {
		var b domain.Ban
		var categoryId, related uuid.NullUUID
		var lower, upper string
		if err := rows.Scan(
			&b.Id, &categoryId, &lower, &upper, &b.Start, &b.End,
			&b.Reason, &related, &b.CreatedAt, &b.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}

		if categoryId.Valid {
			b.Scope = domain.CategoryScope(categoryId.UUID)
		} else {
			b.Scope = domain.GlobalScope()
		}
		if related.Valid {
			postId := domain.PostId(related.UUID)
			b.RelatedPostId = &postId
		}

		var err error
		if b.LowerIpAddress, err = netip.ParseAddr(lower); err != nil {
			return nil, fmt.Errorf("failed to parse stored lower address %q: %w", lower, err)
		}
		if b.UpperIpAddress, err = netip.ParseAddr(upper); err != nil {
			return nil, fmt.Errorf("failed to parse stored upper address %q: %w", upper, err)
		}

		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bans: %w", err)
	}
	return bans, nil
}
