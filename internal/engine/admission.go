package engine

import (
	"context"
	"net/netip"
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/kotoba-dev/kotoba/internal/logger"
)

// AdmissionService is the write-side contract consumed by handlers.
// to mock service in tests
type AdmissionService interface {
	Submit(ctx context.Context, threadId domain.ThreadId, draft domain.PostCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*AdmissionReceipt, error)
	CreateThread(ctx context.Context, data domain.ThreadCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*ThreadReceipt, error)
}

// AdmissionStore persists admission intents. CreatePost and CreateThread
// are atomic: the post row and the thread's bump state are written in one
// transaction or not at all.
type AdmissionStore interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error)
	GetCategoryByAlias(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error)
	CreatePost(ctx context.Context, draft domain.PostCreationData, attachments []domain.Attachment, bump BumpResult, at time.Time) (domain.PostId, error)
	CreateThread(ctx context.Context, data domain.ThreadCreationData, category domain.Category, attachments []domain.Attachment, at time.Time) (domain.ThreadId, domain.PostId, error)
}

// AdmissionReceipt reports the accepted post and the thread ordering state
// it produced.
type AdmissionReceipt struct {
	PostId domain.PostId
	Bump   BumpResult
}

type ThreadReceipt struct {
	ThreadId domain.ThreadId
	PostId   domain.PostId
}

type Admission struct {
	store       AdmissionStore
	banGuard    *BanGuard
	attachments *AttachmentValidator
	now         func() time.Time
}

func NewAdmission(store AdmissionStore, banGuard *BanGuard, attachments *AttachmentValidator) *Admission {
	return &Admission{
		store:       store,
		banGuard:    banGuard,
		attachments: attachments,
		now:         time.Now,
	}
}

// Submit runs the admission sequence for one post: thread state, ban check,
// attachment validation, bump computation, then a single atomic persist.
// Every rejection is terminal; nothing is retried and nothing is partially
// applied.
func (a *Admission) Submit(ctx context.Context, threadId domain.ThreadId, draft domain.PostCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*AdmissionReceipt, error) {
	if err := validateDraft(draft, proposed); err != nil {
		return nil, err
	}
	at := a.now().UTC()

	thread, err := a.store.GetThread(ctx, threadId)
	if err != nil {
		return nil, err
	}
	if thread.IsClosed {
		return nil, &internal_errors.ThreadClosedError{ThreadId: thread.Id}
	}

	if err := a.checkBan(ctx, addr, thread.CategoryId, at); err != nil {
		return nil, err
	}

	attachments, err := a.attachments.Validate(proposed, 0)
	if err != nil {
		return nil, err
	}

	bump := ApplyBump(&thread, draft.IsSageEnabled, at)

	draft.ThreadId = thread.Id
	postId, err := a.store.CreatePost(ctx, draft, attachments, bump, at)
	if err != nil {
		return nil, wrapPersistence("create post", err)
	}

	logger.Log.Info("post admitted",
		"post_id", postId, "thread_id", thread.Id,
		"sage", draft.IsSageEnabled, "saturated", bump.Saturated)
	return &AdmissionReceipt{PostId: postId, Bump: bump}, nil
}

// CreateThread admits a thread's opening post and creates the thread in the
// same transaction. The thread copies its bump limit and user-hash setting
// from the category defaults; the opening post never bumps.
func (a *Admission) CreateThread(ctx context.Context, data domain.ThreadCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*ThreadReceipt, error) {
	if data.Title == "" {
		return nil, &internal_errors.ValidationError{Field: "title", Message: "required"}
	}
	if err := validateDraft(data.OpPost, proposed); err != nil {
		return nil, err
	}
	at := a.now().UTC()

	category, err := a.store.GetCategoryByAlias(ctx, data.CategoryAlias)
	if err != nil {
		return nil, err
	}

	if err := a.checkBan(ctx, addr, category.Id, at); err != nil {
		return nil, err
	}

	attachments, err := a.attachments.Validate(proposed, 0)
	if err != nil {
		return nil, err
	}

	threadId, postId, err := a.store.CreateThread(ctx, data, category, attachments, at)
	if err != nil {
		return nil, wrapPersistence("create thread", err)
	}

	logger.Log.Info("thread created", "thread_id", threadId, "category", category.Alias)
	return &ThreadReceipt{ThreadId: threadId, PostId: postId}, nil
}

func (a *Admission) checkBan(ctx context.Context, addr netip.Addr, categoryId domain.CategoryId, at time.Time) error {
	blocked, ban, err := a.banGuard.IsBlocked(ctx, addr, categoryId, at)
	if err != nil {
		return err
	}
	if blocked {
		return &internal_errors.BannedError{Reason: ban.Reason, ActiveUntil: ban.End}
	}
	return nil
}

func validateDraft(draft domain.PostCreationData, proposed []domain.ProposedAttachment) error {
	if len(draft.Message) > domain.MaxMessageLength {
		return &internal_errors.ValidationError{Field: "message", Message: "too long"}
	}
	if draft.Message == "" && len(proposed) == 0 {
		return &internal_errors.ValidationError{Field: "message", Message: "required"}
	}
	return nil
}

// wrapPersistence marks a failed atomic persist, keeping input-class
// rejections (closed recheck under lock, vanished thread) untouched.
func wrapPersistence(op string, err error) error {
	if internal_errors.Is[*internal_errors.ThreadClosedError](err) ||
		internal_errors.Is[*internal_errors.ThreadNotFoundError](err) ||
		internal_errors.Is[*internal_errors.ErrorWithStatusCode](err) {
		return err
	}
	return &internal_errors.PersistenceError{Op: op, Err: err}
}
