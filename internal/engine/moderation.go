package engine

import (
	"context"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/kotoba-dev/kotoba/internal/logger"
)

// ModerationService groups the moderator-only operations.
// to mock service in tests
type ModerationService interface {
	SetThreadClosed(ctx context.Context, threadId domain.ThreadId, closed bool) error
	SetThreadPinned(ctx context.Context, threadId domain.ThreadId, pinned bool) error
	DeleteThread(ctx context.Context, threadId domain.ThreadId) error
	DeletePost(ctx context.Context, postId domain.PostId) error
	CreateBan(ctx context.Context, data domain.BanCreationData) (domain.BanId, error)
	DeleteBan(ctx context.Context, banId domain.BanId) error
	ListBans(ctx context.Context) ([]domain.Ban, error)
}

type ModerationStore interface {
	SetThreadClosed(ctx context.Context, threadId domain.ThreadId, closed bool) error
	SetThreadPinned(ctx context.Context, threadId domain.ThreadId, pinned bool) error
	SoftDeleteThread(ctx context.Context, threadId domain.ThreadId) error
	SoftDeletePost(ctx context.Context, postId domain.PostId) error
	CreateBan(ctx context.Context, data domain.BanCreationData) (domain.BanId, error)
	SoftDeleteBan(ctx context.Context, banId domain.BanId) error
	ListBans(ctx context.Context) ([]domain.Ban, error)
}

type Moderation struct {
	store ModerationStore
}

func NewModeration(store ModerationStore) *Moderation {
	return &Moderation{store: store}
}

func (m *Moderation) SetThreadClosed(ctx context.Context, threadId domain.ThreadId, closed bool) error {
	return m.store.SetThreadClosed(ctx, threadId, closed)
}

func (m *Moderation) SetThreadPinned(ctx context.Context, threadId domain.ThreadId, pinned bool) error {
	return m.store.SetThreadPinned(ctx, threadId, pinned)
}

func (m *Moderation) DeleteThread(ctx context.Context, threadId domain.ThreadId) error {
	return m.store.SoftDeleteThread(ctx, threadId)
}

func (m *Moderation) DeletePost(ctx context.Context, postId domain.PostId) error {
	return m.store.SoftDeletePost(ctx, postId)
}

// CreateBan validates the range and window invariants before persisting:
// lower <= upper under the family's natural ordering, same family on both
// ends, start < end.
func (m *Moderation) CreateBan(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
	if !data.LowerIpAddress.IsValid() || !data.UpperIpAddress.IsValid() {
		return domain.BanId{}, &internal_errors.ValidationError{Field: "ip_range", Message: "invalid address"}
	}
	if data.LowerIpAddress.Is4() != data.UpperIpAddress.Is4() {
		return domain.BanId{}, &internal_errors.ValidationError{Field: "ip_range", Message: "mixed address families"}
	}
	if data.LowerIpAddress.Compare(data.UpperIpAddress) > 0 {
		return domain.BanId{}, &internal_errors.ValidationError{Field: "ip_range", Message: "lower address above upper"}
	}
	if !data.Start.Before(data.End) {
		return domain.BanId{}, &internal_errors.ValidationError{Field: "window", Message: "start must precede end"}
	}

	id, err := m.store.CreateBan(ctx, data)
	if err != nil {
		return domain.BanId{}, err
	}
	logger.Log.Info("ban created", "ban_id", id, "scope", data.Scope.String(),
		"lower", data.LowerIpAddress, "upper", data.UpperIpAddress, "until", data.End)
	return id, nil
}

func (m *Moderation) DeleteBan(ctx context.Context, banId domain.BanId) error {
	return m.store.SoftDeleteBan(ctx, banId)
}

func (m *Moderation) ListBans(ctx context.Context) ([]domain.Ban, error) {
	return m.store.ListBans(ctx)
}
