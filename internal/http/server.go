package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "expenseflow/internal/log"
	"expenseflow/internal/middleware/ratelimit"
	"expenseflow/internal/middleware/security"
	"expenseflow/internal/middleware/trace"
	"expenseflow/internal/services"
	"expenseflow/internal/storage"
)

// Deps are the services the API is served from.
type Deps struct {
	Accounts  *services.AccountService
	Expenses  *services.ExpenseService
	Dashboard *services.DashboardService

	// Store backs the readiness check; nil reports ready.
	Store storage.Store

	Logger             *applog.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	accounts  *services.AccountService
	expenses  *services.ExpenseService
	dashboard *services.DashboardService
	store     storage.Store

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		accounts:  deps.Accounts,
		expenses:  deps.Expenses,
		dashboard: deps.Dashboard,
		store:     deps.Store,
		limiter:   ratelimit.NewLimiter(limitCfg),
	}

	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	s.handle(mux, "GET /metrics", promhttp.Handler().ServeHTTP)

	s.handle(mux, "POST /api/login", s.handleLogin)
	s.handle(mux, "POST /api/register", s.handleRegister)
	s.handle(mux, "POST /api/logout", s.requireAuth(s.handleLogout))

	s.handle(mux, "GET /api/profile", s.requireAuth(s.handleGetProfile))
	s.handle(mux, "PUT /api/profile", s.requireAuth(s.handleSetupProfile))
	s.handle(mux, "PUT /api/budget", s.requireAuth(s.handleSetupBudget))

	s.handle(mux, "GET /api/expenses", s.requireAuth(s.handleListExpenses))
	s.handle(mux, "POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	s.handle(mux, "GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	s.handle(mux, "PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	s.handle(mux, "DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	s.handle(mux, "GET /api/dashboard", s.requireAuth(s.handleDashboard))

	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	onLimit := func(w http.ResponseWriter, r *http.Request) { TooManyRequestsError().Write(w) }

	// Outermost first.
	s.Handler = chain(mux,
		trace.NewMiddleware(detector.ExtractClientIP).Middleware,
		applog.Middleware(logger.WithComponent(applog.ComponentHTTP)),
		applog.RequestIDMiddleware(trace.RequestIDFromRequest),
		headers.Middleware,
		detector.Middleware,
		s.limiter.Middleware(detector.ExtractClientIP, onLimit),
	)
	return s
}

func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// handle registers h and records the matched pattern for request logs and metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		trace.RecordRoute(r)
		h(w, r)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the store answers a read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.store.Get(ctx, storage.KeySchemaVersion); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
