package handler

import (
	"net/http"
	"strconv"

	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/middleware"
	"github.com/kotoba-dev/kotoba/internal/middleware/metrics"
	"github.com/kotoba-dev/kotoba/internal/utils"
)

type CreatePostRequest struct {
	Message     string              `json:"message"`
	Sage        bool                `json:"sage"`
	Attachments []AttachmentPayload `json:"attachments" validate:"dive"`
}

type CreatePostResponse struct {
	PostId    domain.PostId `json:"post_id"`
	BumpCount int           `json:"bump_count"`
	Saturated bool          `json:"saturated"`
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	threadId, err := parseUUIDParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body CreatePostRequest
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

	receipt, err := h.admission.Submit(r.Context(), threadId, domain.PostCreationData{
		Message:       body.Message,
		IsSageEnabled: body.Sage,
		UserIpAddress: addr.String(),
		UserAgent:     r.UserAgent(),
	}, proposed, addr)
	if err != nil {
		metrics.AdmissionsRejected.WithLabelValues(rejectionReason(err)).Inc()
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	metrics.PostsAdmitted.WithLabelValues(strconv.FormatBool(body.Sage)).Inc()
	writeJSONStatus(w, http.StatusCreated, CreatePostResponse{
		PostId:    receipt.PostId,
		BumpCount: receipt.Bump.BumpCount,
		Saturated: receipt.Bump.Saturated,
	})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postId, err := parseUUIDParam(r, "post")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.moderation.DeletePost(r.Context(), postId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type CreateNoticeRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

func (h *Handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	postId, err := parseUUIDParam(r, "post")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body CreateNoticeRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	author := middleware.GetModeratorFromContext(r)
	noticeId, err := h.store.CreateNotice(r.Context(), postId, author, body.Text)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]domain.NoticeId{"notice_id": noticeId})
}
