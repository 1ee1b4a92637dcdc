package handler

import (
	"net/http"

	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/utils"
)

type CreateBoardRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var body CreateBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	boardId, err := h.store.CreateBoard(r.Context(), body.Name)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]domain.BoardId{"board_id": boardId})
}

type CreateCategoryRequest struct {
	BoardId                        domain.BoardId `json:"board_id" validate:"required"`
	Alias                          string         `json:"alias" validate:"required,alphanum,max=20"`
	Name                           string         `json:"name" validate:"required,max=100"`
	IsHidden                       bool           `json:"is_hidden"`
	DefaultBumpLimit               int            `json:"default_bump_limit" validate:"gte=0"`
	DefaultShowThreadLocalUserHash bool           `json:"default_show_thread_local_user_hash"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body CreateCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	bumpLimit := body.DefaultBumpLimit
	if bumpLimit == 0 {
		bumpLimit = h.cfg.Public.DefaultBumpLimit
	}

	categoryId, err := h.store.CreateCategory(r.Context(), domain.CategoryCreationData{
		BoardId:                        body.BoardId,
		Alias:                          domain.CategoryAlias(body.Alias),
		Name:                           domain.CategoryName(body.Name),
		IsHidden:                       body.IsHidden,
		DefaultBumpLimit:               bumpLimit,
		DefaultShowThreadLocalUserHash: body.DefaultShowThreadLocalUserHash,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]domain.CategoryId{"category_id": categoryId})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, categories)
}
