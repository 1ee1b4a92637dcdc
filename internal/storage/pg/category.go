package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/lib/pq"
)

func (s *Storage) CreateBoard(ctx context.Context, name string) (domain.BoardId, error) {
	var id domain.BoardId
	err := s.db.QueryRow(
		"INSERT INTO boards(name) VALUES($1) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		return domain.BoardId{}, fmt.Errorf("failed to insert board: %w", err)
	}
	return id, nil
}

func (s *Storage) CreateCategory(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error) {
	var id domain.CategoryId
	err := s.db.QueryRow(`
		INSERT INTO categories(board_id, alias, name, is_hidden, default_bump_limit, default_show_thread_local_user_hash)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		data.BoardId, data.Alias, data.Name, data.IsHidden,
		data.DefaultBumpLimit, data.DefaultShowThreadLocalUserHash,
	).Scan(&id)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			taken := "alias"
			if constraint == "categories_name_key" {
				taken = "name"
			}
			return domain.CategoryId{}, &internal_errors.ErrorWithStatusCode{
				Message:    fmt.Sprintf("Category %s already taken", taken),
				StatusCode: http.StatusConflict,
			}
		}
		return domain.CategoryId{}, fmt.Errorf("failed to insert category: %w", err)
	}
	return id, nil
}

func (s *Storage) GetCategoryByAlias(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error) {
	return s.getCategoryByAlias(s.db, alias)
}

func (s *Storage) getCategoryByAlias(q Querier, alias domain.CategoryAlias) (domain.Category, error) {
	var c domain.Category
	err := q.QueryRow(`
		SELECT id, board_id, alias, name, is_hidden, default_bump_limit,
		       default_show_thread_local_user_hash, moderators, created_at, is_deleted
		FROM categories
		WHERE alias = $1 AND NOT is_deleted`, alias,
	).Scan(
		&c.Id, &c.BoardId, &c.Alias, &c.Name, &c.IsHidden, &c.DefaultBumpLimit,
		&c.DefaultShowThreadLocalUserHash, &c.Moderators, &c.CreatedAt, &c.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, internal_errors.NotFound
		}
		return domain.Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

// ListCategories returns visible categories only; hidden boards are reachable
// by alias but never enumerated.
func (s *Storage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.Query(`
		SELECT id, board_id, alias, name, is_hidden, default_bump_limit,
		       default_show_thread_local_user_hash, moderators, created_at, is_deleted
		FROM categories
		WHERE NOT is_hidden AND NOT is_deleted
		ORDER BY alias`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(
			&c.Id, &c.BoardId, &c.Alias, &c.Name, &c.IsHidden, &c.DefaultBumpLimit,
			&c.DefaultShowThreadLocalUserHash, &c.Moderators, &c.CreatedAt, &c.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// uniqueViolation reports the violated constraint name for unique-violation
// errors (Postgres error code 23505).
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
