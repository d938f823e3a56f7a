package server

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"salesboard/internal/config"
	"salesboard/internal/handlers"
	"salesboard/internal/middleware"
	"salesboard/internal/observability"
	"salesboard/internal/services"
)

// Deps are the collaborators the server routes to. Metrics may be nil, which
// disables the /metrics endpoint and request metrics.
type Deps struct {
	Config    *config.Config
	Analytics *services.Analytics
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Tracer    trace.TracerProvider
	Version   string
}

type Server struct {
	deps         Deps
	mux          *http.ServeMux
	limiter      *middleware.RateLimiter
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(deps Deps) *Server {
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider()
	}
	cfg := deps.Config
	s := &Server{
		deps:         deps,
		mux:          http.NewServeMux(),
		limiter:      middleware.NewRateLimiter(cfg.Security),
		apiHandlers:  handlers.NewAPIHandlers(deps.Analytics, deps.Logger, cfg.Data.MaxUploadBytes, deps.Version),
		sseHandlers:  handlers.NewSSEHandlers(deps.Analytics, deps.Logger, deps.Metrics),
		pageHandlers: handlers.NewPageHandlers(deps.Analytics, deps.Logger, cfg.Engine.TopN),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard and operations
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if s.deps.Metrics != nil {
		s.mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/metrics", s.apiHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /api/rollups/{name}", s.apiHandlers.HandleRollup)
	s.mux.HandleFunc("GET /api/totals", s.apiHandlers.HandleTotals)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/products/{product}", s.apiHandlers.HandleProduct)
	s.mux.HandleFunc("POST /api/records", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("GET /api/export.csv", s.apiHandlers.HandleExportCSV)
	s.mux.HandleFunc("GET /api/export.xlsx", s.apiHandlers.HandleExportXLSX)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("GET /sse/metrics-table", s.sseHandlers.HandleMetricsTable)
	s.mux.HandleFunc("GET /sse/charts", s.sseHandlers.HandleCharts)
}

// Handler wraps the routes in the middleware chain. Tracing and Metrics sit
// directly above the mux so they observe the matched route pattern.
func (s *Server) Handler() http.Handler {
	cfg := s.deps.Config
	mws := []middleware.Middleware{
		middleware.Recovery(s.deps.Logger),
		middleware.RequestID(),
		middleware.Logger(s.deps.Logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(s.limiter, s.deps.Logger),
		middleware.Tracing(s.deps.Tracer),
	}
	if s.deps.Metrics != nil {
		mws = append(mws, middleware.Metrics(s.deps.Metrics))
	}
	return middleware.Chain(mws...)(s.mux)
}

// Limiter is the rate limiter the handler chain uses.
func (s *Server) Limiter() *middleware.RateLimiter {
	return s.limiter
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
