package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hatchai/hatch-backend/internal/api/handlers"
	appMiddleware "github.com/hatchai/hatch-backend/internal/api/middlewares"
	"github.com/hatchai/hatch-backend/internal/config"
	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *logger.Logger, db core.DbClient,
	personas *services.PersonaService, chats *services.ChatService, panels *services.PanelsService) *Server {

	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	personaHandler := handlers.NewPersonaHandler(personas, chats, panels)
	chatHandler := handlers.NewChatHandler(personas, chats)
	enrichmentHandler := handlers.NewEnrichmentHandler(personas, cfg.EnrichmentToken)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Persona initialization legitimately blocks across the whole polling
	// budget, so the request timeout has to clear it.
	r.Use(middleware.Timeout(cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 60*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		// token-guarded workflow callback, not JWT
		api.Post("/webhooks/enrichment", enrichmentHandler.Complete)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))
			protected.Post("/personas", personaHandler.Create)
			protected.Get("/personas", personaHandler.List)
			protected.Get("/personas/{id}", personaHandler.Get)
			protected.Delete("/personas/{id}", personaHandler.Delete)
			protected.Post("/personas/{id}/panels", personaHandler.Panels)
			protected.Get("/personas/{id}/conversations", personaHandler.Transcript)
			protected.Post("/chat", chatHandler.Send)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("server error", "error", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
