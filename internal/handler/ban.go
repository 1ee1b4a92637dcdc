package handler

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/kotoba-dev/kotoba/internal/utils"
)

// CreateBanRequest targets a category by alias; leaving it empty makes the
// ban site-wide. A single address ban sets both ends to the same value.
type CreateBanRequest struct {
	CategoryAlias  string         `json:"category_alias"`
	LowerIpAddress string         `json:"lower_ip_address" validate:"required"`
	UpperIpAddress string         `json:"upper_ip_address" validate:"required"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end" validate:"required"`
	Reason         string         `json:"reason" validate:"max=500"`
	RelatedPostId  *domain.PostId `json:"related_post_id,omitempty"`
}

func (h *Handler) CreateBan(w http.ResponseWriter, r *http.Request) {
	var body CreateBanRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	lower, err := netip.ParseAddr(body.LowerIpAddress)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "lower_ip_address", Message: "invalid address"})
		return
	}
	upper, err := netip.ParseAddr(body.UpperIpAddress)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "upper_ip_address", Message: "invalid address"})
		return
	}

	scope := domain.GlobalScope()
	if body.CategoryAlias != "" {
		category, err := h.store.GetCategoryByAlias(r.Context(), domain.CategoryAlias(body.CategoryAlias))
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		scope = domain.CategoryScope(category.Id)
	}

	start := body.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}

	banId, err := h.moderation.CreateBan(r.Context(), domain.BanCreationData{
		Scope:          scope,
		LowerIpAddress: lower,
		UpperIpAddress: upper,
		Start:          start,
		End:            body.End,
		Reason:         body.Reason,
		RelatedPostId:  body.RelatedPostId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]domain.BanId{"ban_id": banId})
}

func (h *Handler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	banId, err := parseUUIDParam(r, "ban")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.moderation.DeleteBan(r.Context(), banId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// BanView flattens the scope for JSON; netip addresses marshal as strings.
type BanView struct {
	Id             domain.BanId   `json:"id"`
	CategoryScope  string         `json:"category_id,omitempty"`
	Global         bool           `json:"global"`
	LowerIpAddress string         `json:"lower_ip_address"`
	UpperIpAddress string         `json:"upper_ip_address"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Reason         string         `json:"reason"`
	RelatedPostId  *domain.PostId `json:"related_post_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (h *Handler) ListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := h.moderation.ListBans(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	views := make([]BanView, 0, len(bans))
	for _, ban := range bans {
		view := BanView{
			Id:             ban.Id,
			Global:         ban.Scope.IsGlobal(),
			LowerIpAddress: ban.LowerIpAddress.String(),
			UpperIpAddress: ban.UpperIpAddress.String(),
			Start:          ban.Start,
			End:            ban.End,
			Reason:         ban.Reason,
			RelatedPostId:  ban.RelatedPostId,
			CreatedAt:      ban.CreatedAt,
		}
		if categoryId, ok := ban.Scope.Category(); ok {
			view.CategoryScope = categoryId.String()
		}
		views = append(views, view)
	}
	writeJSON(w, views)
}
