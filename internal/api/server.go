// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires the router, the middleware chain and the domain handlers
into a runnable [http.Server].

Routes:

	GET  /health         liveness, always 200 while the process runs
	GET  /ready          readiness, 503 when a dependency probe fails
	POST /auth/register  public
	POST /auth/login     public
	GET  /auth/me        bearer token
	PUT  /auth/me        bearer token
	POST /api/ask        bearer token

Unknown paths and wrong verbs get the same JSON error envelope as every
other failure.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
	"github.com/taibuivan/klyptik/internal/platform/config"
	"github.com/taibuivan/klyptik/internal/platform/constants"
	"github.com/taibuivan/klyptik/internal/platform/middleware"
	"github.com/taibuivan/klyptik/internal/platform/respond"
	"github.com/taibuivan/klyptik/internal/quiz"
	"github.com/taibuivan/klyptik/internal/users/auth"
)

// Server owns the router and the [http.Server] bound to it.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers groups the handler sets the router mounts.
type Handlers struct {
	// Liveness answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness answers 200 when all dependencies are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login and the caller's profile.
	Auth *auth.Handler

	// Quiz handles quiz generation.
	Quiz *quiz.Handler
}

// NewServer builds the router. verifier resolves bearer tokens for every
// guarded route.
func NewServer(cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()
	guard := middleware.RequireBearer(verifier)

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// Set before any Mount so sub-routers inherit them.
	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})
	r.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.MethodNotAllowed())
	})

	// # Probes
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Mount("/auth", h.Auth.Routes(guard))

	r.Route("/api", func(api chi.Router) {
		api.Use(guard)
		api.Mount("/", h.Quiz.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}
}

// Handler exposes the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server is shut down or fails to bind.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
