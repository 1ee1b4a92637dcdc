package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kotoba-dev/kotoba/internal/middleware"
	"github.com/kotoba-dev/kotoba/internal/middleware/metrics"
	"github.com/kotoba-dev/kotoba/internal/setup"
)

// New wires every route. Moderation endpoints live under /v1/mod and require
// a valid moderator token; everything else is anonymous.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chi_middleware.Recoverer)
	r.Use(chi_middleware.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	auth := mw.NewAuth(deps.Jwt)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Get("/categories", h.ListCategories)
		r.Get("/search", h.Search)

		r.Get("/{category}", h.ListThreads)
		r.Post("/{category}", h.CreateThread)
		r.Get("/{category}/{thread}", h.GetThread)
		r.Post("/{category}/{thread}", h.CreatePost)

		r.Route("/mod", func(r chi.Router) {
			r.Use(auth.ModeratorOnly)

			r.Post("/boards", h.CreateBoard)
			r.Post("/categories", h.CreateCategory)

			r.Put("/threads/{thread}/closed", h.SetThreadClosed)
			r.Put("/threads/{thread}/pinned", h.SetThreadPinned)
			r.Delete("/threads/{thread}", h.DeleteThread)

			r.Delete("/posts/{post}", h.DeletePost)
			r.Post("/posts/{post}/notices", h.CreateNotice)

			r.Get("/bans", h.ListBans)
			r.Post("/bans", h.CreateBan)
			r.Delete("/bans/{ban}", h.DeleteBan)
		})
	})

	return r
}
