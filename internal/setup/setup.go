package setup

import (
	"github.com/kotoba-dev/kotoba/internal/config"
	"github.com/kotoba-dev/kotoba/internal/engine"
	"github.com/kotoba-dev/kotoba/internal/handler"
	"github.com/kotoba-dev/kotoba/internal/jwt"
	"github.com/kotoba-dev/kotoba/internal/render"
	"github.com/kotoba-dev/kotoba/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Handler *handler.Handler
	Jwt     jwt.JwtService
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	attachments, err := engine.NewAttachmentValidator(engine.AttachmentLimits{
		MaxCountPerPost:    cfg.Public.MaxAttachmentsCountPerPost,
		MaxBytesPerPost:    cfg.Public.MaxAttachmentsBytesPerPost,
		AudioExtensions:    cfg.Public.AudioExtensions,
		PictureExtensions:  cfg.Public.PictureExtensions,
		VideoExtensions:    cfg.Public.VideoExtensions,
		DocumentExtensions: cfg.Public.DocumentExtensions,
	})
	if err != nil {
		return nil, err
	}

	banGuard := engine.NewBanGuard(storage)
	admission := engine.NewAdmission(storage, banGuard, attachments)
	listing := engine.NewListing(storage, cfg.Public.SearchPageSize, cfg.Public.ThreadsPerPage)
	moderation := engine.NewModeration(storage)

	h := handler.New(admission, listing, moderation, storage, render.New(), cfg, jwtService)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Handler: h,
		Jwt:     jwtService,
	}, nil
}
