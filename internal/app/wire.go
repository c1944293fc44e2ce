package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sgad/referee-service/internal/handler"
	"github.com/sgad/referee-service/internal/infra"
	"github.com/sgad/referee-service/internal/repository"
	"github.com/sgad/referee-service/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool               *pgxpool.Pool
	Logger             *slog.Logger
	CORSAllowedOrigins string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	logger := deps.Logger

	origins := deps.CORSAllowedOrigins
	if origins == "" {
		origins = "*"
	}

	// Repositories
	refereeRepo := repository.NewRefereeRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Services
	refereeSvc := service.NewRefereeService(infra.NewScope(pool), refereeRepo, outboxRepo, logger)

	// Handlers
	refereeHandler := handler.NewRefereeHandler(refereeSvc, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origins))
	r.Use(handler.JSONContentType)

	r.Get("/", handler.RootHandler)
	r.Get("/health", handler.HealthHandler(pool))

	r.Route("/referees", refereeHandler.Routes)

	return r
}
