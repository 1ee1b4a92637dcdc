package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/engine"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
)

// CreatePost inserts a post and applies the thread's bump transition in one
// transaction. The thread row is locked first and closed/deleted state is
// rechecked under the lock, so a concurrent close cannot let a post slip in.
// The bump columns are recomputed in SQL with the same rule the engine used
// on its snapshot: sage or saturated leaves last_bump_ts alone.
func (s *Storage) CreatePost(ctx context.Context, draft domain.PostCreationData, attachments []domain.Attachment, bump engine.BumpResult, at time.Time) (domain.PostId, error) {
	var postId domain.PostId

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var isClosed bool
		err := tx.QueryRow(
			"SELECT is_closed FROM threads WHERE id = $1 AND NOT is_deleted FOR UPDATE",
			draft.ThreadId,
		).Scan(&isClosed)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &internal_errors.ThreadNotFoundError{ThreadId: draft.ThreadId}
			}
			return fmt.Errorf("failed to lock thread: %w", err)
		}
		if isClosed {
			return &internal_errors.ThreadClosedError{ThreadId: draft.ThreadId}
		}

		_, err = tx.Exec(`
			UPDATE threads SET
				post_count = post_count + 1,
				bump_count = CASE WHEN $1 OR bump_count >= bump_limit THEN bump_count ELSE bump_count + 1 END,
				last_bumped_at = CASE WHEN $1 OR bump_count >= bump_limit THEN last_bumped_at ELSE $2 END
			WHERE id = $3`,
			draft.IsSageEnabled, at, draft.ThreadId,
		)
		if err != nil {
			return fmt.Errorf("failed to update thread bump state: %w", err)
		}

		postId, err = s.insertPost(tx, draft.ThreadId, draft, false, at)
		if err != nil {
			return err
		}
		return s.insertAttachments(tx, postId, attachments)
	})
	if err != nil {
		return domain.PostId{}, err
	}
	return postId, nil
}

func (s *Storage) insertPost(q Querier, threadId domain.ThreadId, draft domain.PostCreationData, isOpening bool, at time.Time) (domain.PostId, error) {
	var id domain.PostId
	err := q.QueryRow(`
		INSERT INTO posts(thread_id, message, is_sage_enabled, is_opening_post, user_ip_address, user_agent, created_at, modified_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`,
		threadId, draft.Message, draft.IsSageEnabled, isOpening,
		draft.UserIpAddress, draft.UserAgent, at,
	).Scan(&id)
	if err != nil {
		return domain.PostId{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, nil
}

func (s *Storage) insertAttachments(q Querier, postId domain.PostId, attachments []domain.Attachment) error {
	for _, a := range attachments {
		_, err := q.Exec(`
			INSERT INTO attachments(post_id, kind, file_name, file_extension, hash, size_bytes, width, height)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
			postId, a.Kind, a.FileName, a.FileExtension, a.Hash, a.SizeBytes, a.Width, a.Height,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attachment: %w", err)
		}
	}
	return nil
}

func (s *Storage) SoftDeletePost(ctx context.Context, postId domain.PostId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE posts SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted",
			postId,
		)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
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

// CreateNotice attaches a moderator annotation to a post.
func (s *Storage) CreateNotice(ctx context.Context, postId domain.PostId, author, text string) (domain.NoticeId, error) {
	var id domain.NoticeId
	err := s.db.QueryRow(
		"INSERT INTO notices(post_id, author, text) VALUES($1, $2, $3) RETURNING id",
		postId, author, text,
	).Scan(&id)
	if err != nil {
		return domain.NoticeId{}, fmt.Errorf("failed to insert notice: %w", err)
	}
	return id, nil
}
