package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finvue/internal/analytics"
	"finvue/internal/log"
	"finvue/internal/metrics"
	"finvue/internal/middleware/ratelimit"
	"finvue/internal/middleware/security"
	"finvue/internal/services"
)

// Deps are the collaborators the API serves from.
type Deps struct {
	Service *services.LedgerService
	Engine  *analytics.Engine
	Metrics *metrics.Metrics
	Logger  *log.Logger
	// Ready reports whether storage is reachable; nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimitPerMinute applies to mutation routes per client IP.
	RateLimitPerMinute int
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP set the client IP.
	TrustProxyHeaders bool
	// Now picks the default month; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	limiter *ratelimit.Limiter
}

func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	httpLogger := s.deps.Logger.WithComponent(log.ComponentHTTP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.deps.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(log.Middleware(httpLogger, func(r *http.Request) string { return middleware.GetReqID(r.Context()) }))
	r.Use(log.AccessLog(routePattern, clientIP, s.observe))
	r.Use(middleware.Recoverer)
	r.Use(headers.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	limited := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, clientIP(r))
		TooManyRequestsError().Write(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/trend", s.handleTrend)
		r.Get("/export.csv", s.handleExport)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.With(limited).Post("/", s.handleCreateTransaction)
			r.With(limited).Put("/{id}", s.handleUpdateTransaction)
			r.With(limited).Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/{type}", s.handleListCategoriesOfType)
			r.With(limited).Post("/{type}", s.handleAddCategory)
			r.With(limited).Put("/{type}/{index}", s.handleRenameCategory)
			r.With(limited).Delete("/{type}/{index}", s.handleRemoveCategory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

func (s *Server) observe(route string, status int, d time.Duration) {
	s.deps.Metrics.ObserveRequest(route, strconv.Itoa(status), d)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// routePattern is the matched chi pattern, read after routing.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
