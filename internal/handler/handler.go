package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kotoba-dev/kotoba/internal/config"
	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/engine"
	"github.com/kotoba-dev/kotoba/internal/jwt"
	"github.com/kotoba-dev/kotoba/internal/logger"
	"github.com/kotoba-dev/kotoba/internal/render"
)

// ContentStore covers the read and admin paths that bypass the engine
// services: thread pages, category management and moderator notices.
type ContentStore interface {
	GetThreadWithPosts(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetCategoryByAlias(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateBoard(ctx context.Context, name string) (domain.BoardId, error)
	CreateCategory(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error)
	CreateNotice(ctx context.Context, postId domain.PostId, author, text string) (domain.NoticeId, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	admission  engine.AdmissionService
	listing    engine.ListingService
	moderation engine.ModerationService
	store      ContentStore
	render     *render.TextProcessor
	cfg        *config.Config
	jwt        jwt.JwtService
}

func New(admission engine.AdmissionService, listing engine.ListingService, moderation engine.ModerationService, store ContentStore, render *render.TextProcessor, cfg *config.Config, jwt jwt.JwtService) *Handler {
	return &Handler{admission, listing, moderation, store, render, cfg, jwt}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
