// Package api exposes the wallet over a localhost-only HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Fantasim/hdada/internal/api/handlers"
	"github.com/Fantasim/hdada/internal/api/middleware"
	"github.com/Fantasim/hdada/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.HostCheck)
	r.Use(middleware.CORS)
	r.Use(middleware.RequireJSON)

	slog.Info("router initialized",
		"middleware", []string{"requestLogging", "recoverer", "hostCheck", "cors", "requireJSON"},
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health(deps.Config, Version))

		r.Route("/bundles", func(r chi.Router) {
			r.With(chimw.Timeout(config.APITimeout)).Post("/", handlers.CreateBundle(deps))
			r.Get("/", handlers.ListBundles(deps))
			r.Get("/{id}", handlers.GetBundle(deps))
			r.Get("/{id}/export", handlers.ExportBundle(deps))
		})

		r.With(chimw.Timeout(config.APITimeout)).Post("/sign", handlers.SignMessage(deps))
		r.Post("/verify", handlers.VerifySignature())
		r.Post("/verify/batch", handlers.VerifyBatch())

		r.Post("/challenges", handlers.CreateChallenge(deps))
		r.Post("/challenges/{id}/verify", handlers.VerifyChallenge(deps))

		r.Get("/addresses/{address}", handlers.GetAddress(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	return r
}

// NewServer wraps the router in an http.Server bound to 127.0.0.1.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}
}
