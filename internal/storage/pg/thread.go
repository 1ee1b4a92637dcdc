package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
)

const threadMetadataColumns = `
	t.id, t.category_id, c.alias, t.title,
	t.bump_limit, t.bump_count, t.post_count,
	t.is_closed, t.is_pinned, t.show_thread_local_user_hash,
	t.last_bumped_at, t.created_at, t.is_deleted`

func scanThreadMetadata(row *sql.Row) (domain.ThreadMetadata, error) {
	var t domain.ThreadMetadata
	err := row.Scan(
		&t.Id, &t.CategoryId, &t.CategoryAlias, &t.Title,
		&t.BumpLimit, &t.BumpCount, &t.PostCount,
		&t.IsClosed, &t.IsPinned, &t.ShowThreadLocalUserHash,
		&t.LastBumpedAt, &t.CreatedAt, &t.IsDeleted,
	)
	return t, err
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error) {
	return s.getThread(s.db, id)
}

func (s *Storage) getThread(q Querier, id domain.ThreadId) (domain.ThreadMetadata, error) {
	metadata, err := scanThreadMetadata(q.QueryRow(`
		SELECT `+threadMetadataColumns+`
		FROM threads t
		JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1 AND NOT t.is_deleted`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ThreadMetadata{}, &internal_errors.ThreadNotFoundError{ThreadId: id}
		}
		return domain.ThreadMetadata{}, fmt.Errorf("failed to fetch thread metadata: %w", err)
	}
	return metadata, nil
}

// GetThreadWithPosts fetches the thread page: metadata plus all surviving
// posts with their attachments and notices.
func (s *Storage) GetThreadWithPosts(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	metadata, err := s.getThread(s.db, id)
	if err != nil {
		return domain.Thread{}, err
	}

	rows, err := s.db.Query(`
		SELECT id, thread_id, message, is_sage_enabled, user_ip_address, user_agent,
		       created_at, modified_at, is_deleted
		FROM posts
		WHERE thread_id = $1 AND NOT is_deleted
		ORDER BY created_at`, id)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	postIdxMap := make(map[domain.PostId]int)
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.Id, &p.ThreadId, &p.Message, &p.IsSageEnabled, &p.UserIpAddress,
			&p.UserAgent, &p.CreatedAt, &p.ModifiedAt, &p.IsDeleted,
		); err != nil {
			return domain.Thread{}, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &p)
		postIdxMap[p.Id] = len(posts) - 1
	}
	if err := rows.Err(); err != nil {
		return domain.Thread{}, fmt.Errorf("rows iteration error: %w", err)
	}

	attachmentRows, err := s.db.Query(`
		SELECT a.id, a.post_id, a.kind, a.file_name, a.file_extension,
		       a.hash, a.size_bytes, a.width, a.height
		FROM attachments a
		JOIN posts p ON p.id = a.post_id
		WHERE p.thread_id = $1 AND NOT p.is_deleted
		ORDER BY a.file_name`, id)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch attachments: %w", err)
	}
	defer attachmentRows.Close()
	for attachmentRows.Next() {
		var a domain.Attachment
		if err := attachmentRows.Scan(
			&a.Id, &a.PostId, &a.Kind, &a.FileName, &a.FileExtension,
			&a.Hash, &a.SizeBytes, &a.Width, &a.Height,
		); err != nil {
			return domain.Thread{}, fmt.Errorf("failed to scan attachment: %w", err)
		}
		if idx, ok := postIdxMap[a.PostId]; ok {
			posts[idx].Attachments = append(posts[idx].Attachments, &a)
		}
	}
	if err := attachmentRows.Err(); err != nil {
		return domain.Thread{}, fmt.Errorf("error iterating attachments: %w", err)
	}

	noticeRows, err := s.db.Query(`
		SELECT n.id, n.post_id, n.author, n.text, n.created_at
		FROM notices n
		JOIN posts p ON p.id = n.post_id
		WHERE p.thread_id = $1 AND NOT p.is_deleted
		ORDER BY n.created_at`, id)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch notices: %w", err)
	}
	defer noticeRows.Close()
	for noticeRows.Next() {
		var n domain.Notice
		if err := noticeRows.Scan(&n.Id, &n.PostId, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return domain.Thread{}, fmt.Errorf("failed to scan notice: %w", err)
		}
		if idx, ok := postIdxMap[n.PostId]; ok {
			posts[idx].Notices = append(posts[idx].Notices, &n)
		}
	}
	if err := noticeRows.Err(); err != nil {
		return domain.Thread{}, fmt.Errorf("error iterating notices: %w", err)
	}

	return domain.Thread{ThreadMetadata: metadata, Posts: posts}, nil
}

// CreateThread inserts the thread row and its opening post atomically. The
// thread copies bump_limit and the user-hash setting from its category; the
// opening post does not consume a bump, so the ordering key starts at the
// creation time with bump_count 0.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData, category domain.Category, attachments []domain.Attachment, at time.Time) (domain.ThreadId, domain.PostId, error) {
	var threadId domain.ThreadId
	var postId domain.PostId

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO threads(category_id, title, bump_limit, post_count, show_thread_local_user_hash, last_bumped_at, created_at)
			VALUES($1, $2, $3, 1, $4, $5, $5)
			RETURNING id`,
			category.Id, data.Title, category.DefaultBumpLimit,
			category.DefaultShowThreadLocalUserHash, at,
		).Scan(&threadId)
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}

		postId, err = s.insertPost(tx, threadId, data.OpPost, true, at)
		if err != nil {
			return err
		}
		return s.insertAttachments(tx, postId, attachments)
	})
	if err != nil {
		return domain.ThreadId{}, domain.PostId{}, err
	}
	return threadId, postId, nil
}

func (s *Storage) ThreadsInCategory(ctx context.Context, categoryId domain.CategoryId) ([]domain.ThreadSummary, error) {
	rows, err := s.db.Query(`
		SELECT t.id, c.alias, t.title, t.post_count, t.bump_count, t.bump_limit,
		       t.is_closed, t.is_pinned, t.last_bumped_at, t.created_at
		FROM threads t
		JOIN categories c ON c.id = t.category_id
		WHERE t.category_id = $1 AND NOT t.is_deleted
		ORDER BY t.is_pinned DESC, t.last_bumped_at DESC, t.created_at DESC`, categoryId)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.ThreadSummary
	for rows.Next() {
		var t domain.ThreadSummary
		if err := rows.Scan(
			&t.Id, &t.CategoryAlias, &t.Title, &t.PostCount, &t.BumpCount, &t.BumpLimit,
			&t.IsClosed, &t.IsPinned, &t.LastBumpedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}
	return threads, nil
}

func (s *Storage) SetThreadClosed(ctx context.Context, threadId domain.ThreadId, closed bool) error {
	return s.updateThreadFlag(ctx, threadId, "is_closed", closed)
}

func (s *Storage) SetThreadPinned(ctx context.Context, threadId domain.ThreadId, pinned bool) error {
	return s.updateThreadFlag(ctx, threadId, "is_pinned", pinned)
}

func (s *Storage) SoftDeleteThread(ctx context.Context, threadId domain.ThreadId) error {
	return s.updateThreadFlag(ctx, threadId, "is_deleted", true)
}

func (s *Storage) updateThreadFlag(ctx context.Context, threadId domain.ThreadId, column string, value bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			fmt.Sprintf("UPDATE threads SET %s = $1 WHERE id = $2 AND NOT is_deleted", column),
			value, threadId,
		)
		if err != nil {
			return fmt.Errorf("failed to update thread: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		}
		if affected == 0 {
			return &internal_errors.ThreadNotFoundError{ThreadId: threadId}
		}
		return nil
	})
}
