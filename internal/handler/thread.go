package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/utils"
)

type CreateThreadRequest struct {
	Title       string              `json:"title" validate:"required,max=100"`
	Message     string              `json:"message"`
	Attachments []AttachmentPayload `json:"attachments" validate:"dive"`
}

type CreateThreadResponse struct {
	ThreadId domain.ThreadId `json:"thread_id"`
	PostId   domain.PostId   `json:"post_id"`
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	categoryAlias := chi.URLParam(r, "category")

	var body CreateThreadRequest
	proposed, err := decodePostBody(r, &body)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if proposed == nil {
		proposed = proposedFromPayload(body.Attachments)
	}

	addr, err := utils.GetIP(r)
	if err != nil {
		http.Error(w, "Can't resolve client address", http.StatusBadRequest)
		return
	}

	receipt, err := h.admission.CreateThread(r.Context(), domain.ThreadCreationData{
		Title:         domain.ThreadTitle(body.Title),
		CategoryAlias: domain.CategoryAlias(categoryAlias),
		OpPost: domain.PostCreationData{
			Message:       body.Message,
			UserIpAddress: addr.String(),
			UserAgent:     r.UserAgent(),
		},
	}, proposed, addr)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, CreateThreadResponse{
		ThreadId: receipt.ThreadId,
		PostId:   receipt.PostId,
	})
}

// PostView is a post as rendered on a thread page. UserHash is only set when
// the thread shows per-thread poster ids.
type PostView struct {
	Id            domain.PostId        `json:"id"`
	Message       string               `json:"message"`
	MessageHtml   string               `json:"message_html"`
	IsSageEnabled bool                 `json:"is_sage_enabled"`
	CreatedAt     time.Time            `json:"created_at"`
	UserHash      string               `json:"user_hash,omitempty"`
	Attachments   []*domain.Attachment `json:"attachments,omitempty"`
	Notices       []*domain.Notice     `json:"notices,omitempty"`
}

type ThreadResponse struct {
	Id            domain.ThreadId      `json:"id"`
	CategoryAlias domain.CategoryAlias `json:"category_alias"`
	Title         domain.ThreadTitle   `json:"title"`
	BumpLimit     int                  `json:"bump_limit"`
	BumpCount     int                  `json:"bump_count"`
	PostCount     int                  `json:"post_count"`
	IsClosed      bool                 `json:"is_closed"`
	IsPinned      bool                 `json:"is_pinned"`
	LastBumpedAt  time.Time            `json:"last_bumped_at"`
	CreatedAt     time.Time            `json:"created_at"`
	Posts         []PostView           `json:"posts"`
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := parseUUIDParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.store.GetThreadWithPosts(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := ThreadResponse{
		Id:            thread.Id,
		CategoryAlias: thread.CategoryAlias,
		Title:         thread.Title,
		BumpLimit:     thread.BumpLimit,
		BumpCount:     thread.BumpCount,
		PostCount:     thread.PostCount,
		IsClosed:      thread.IsClosed,
		IsPinned:      thread.IsPinned,
		LastBumpedAt:  thread.LastBumpedAt,
		CreatedAt:     thread.CreatedAt,
		Posts:         make([]PostView, 0, len(thread.Posts)),
	}
	for _, post := range thread.Posts {
		view := PostView{
			Id:            post.Id,
			Message:       post.Message,
			MessageHtml:   h.render.RenderMessage(post.Message),
			IsSageEnabled: post.IsSageEnabled,
			CreatedAt:     post.CreatedAt,
			Attachments:   post.Attachments,
			Notices:       post.Notices,
		}
		if thread.ShowThreadLocalUserHash {
			view.UserHash = utils.ThreadLocalUserHash(h.cfg.Private.HashPepper, thread.Id, post.UserIpAddress)
		}
		response.Posts = append(response.Posts, view)
	}

	writeJSON(w, response)
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	categoryAlias := chi.URLParam(r, "category")

	page, err := h.listing.ListThreads(r.Context(), domain.CategoryAlias(categoryAlias), parsePage(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, page)
}

type setFlagRequest struct {
	Value bool `json:"value"`
}

func (h *Handler) SetThreadClosed(w http.ResponseWriter, r *http.Request) {
	h.setThreadFlag(w, r, h.moderation.SetThreadClosed)
}

func (h *Handler) SetThreadPinned(w http.ResponseWriter, r *http.Request) {
	h.setThreadFlag(w, r, h.moderation.SetThreadPinned)
}

func (h *Handler) setThreadFlag(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, threadId domain.ThreadId, value bool) error) {
	threadId, err := parseUUIDParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body setFlagRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := set(r.Context(), threadId, body.Value); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := parseUUIDParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.moderation.DeleteThread(r.Context(), threadId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
