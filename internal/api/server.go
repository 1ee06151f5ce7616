package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/rollout/internal/api/docs"
	"github.com/edvin/rollout/internal/api/handler"
	mw "github.com/edvin/rollout/internal/api/middleware"
	"github.com/edvin/rollout/internal/core"
	"github.com/edvin/rollout/internal/store"
	"github.com/edvin/rollout/internal/strategy"
)

// Database is the pool the API server runs on. *pgxpool.Pool satisfies it.
type Database interface {
	store.DB
	Ping(ctx context.Context) error
}

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	db             Database
	temporalClient temporalclient.Client
	auditLogger    *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, db Database, temporalClient temporalclient.Client, strategies *strategy.Registry) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       core.NewServices(db, temporalClient, strategies),
		db:             db,
		temporalClient: temporalClient,
		auditLogger:    mw.NewAuditLogger(db, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Get("/docs/openapi.json", s.handleOpenAPI)
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auditLogger.Middleware)

		configs := handler.NewConfig(s.services.Config)
		r.Post("/configs", configs.Create)
		r.Get("/configs", configs.List)
		r.Get("/configs/{id}", configs.Get)

		deployments := handler.NewDeployment(s.services.Deployment)
		r.Post("/deployments", deployments.Create)
		r.Get("/deployments", deployments.List)
		r.Get("/deployments/{id}", deployments.Get)
		r.Post("/deployments/{id}/approvals", deployments.Approve)
		r.Post("/deployments/{id}/rollback-decision", deployments.RollbackDecision)

		logs := handler.NewLogs(s.services.Deployment)
		r.Get("/deployments/{id}/logs", logs.List)
		r.Get("/deployments/{id}/logs/stream", logs.Stream)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(docs.SwaggerInfo.ReadDoc()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes pending audit log entries.
func (s *Server) Close() {
	s.auditLogger.Close()
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Rollout API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
