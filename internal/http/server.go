// Package http exposes the transaction API over JSON.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

const (
	summaryCacheSize = 256
	summaryCacheTTL  = 5 * time.Minute
)

// Server serves the transaction API with tracing, security headers and
// write rate limiting.
type Server struct {
	httpServer   *http.Server
	transactions *services.TransactionService
	logger       *log.Logger
	metrics      *trace.Metrics
	limiter      *ratelimit.Limiter
	summaryCache *cache.LRUCache[summaryResponse]
	janitor      *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer wires the API routes and middleware chain.
func NewServer(port string, transactions *services.TransactionService, logger *log.Logger) *Server {
	s := &Server{
		transactions: transactions,
		logger:       logger.WithComponent(log.ComponentHTTP),
		metrics:      &trace.Metrics{},
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache: cache.NewLRUCache[summaryResponse](summaryCacheSize, summaryCacheTTL),
	}
	s.janitor = cache.NewJanitor(s.summaryCache)
	s.janitor.Start(time.Minute)

	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/by-categories", s.handleByCategories)
	mux.HandleFunc("GET /api/transactions/by-period", s.handleByPeriod)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	limitWrites := func(r *http.Request) bool { return r.Method != http.MethodGet }

	var handler http.Handler = mux
	handler = s.limiter.Middleware(security.ClientIP, limitWrites)(handler)
	handler = security.HeadersMiddleware(security.DefaultHeadersConfig())(handler)
	handler = trace.Middleware(s.logger, s.metrics)(handler)
	return handler
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"requests_total":     s.metrics.Total.Load(),
		"requests_succeeded": s.metrics.Succeeded.Load(),
		"requests_failed":    s.metrics.Failed.Load(),
	})
}

// ListenAndServe blocks serving requests until the listener closes.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and releases background resources.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.janitor.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

func summaryCacheKey(userID, rawQuery string) string {
	return userID + "|" + rawQuery
}

func (s *Server) invalidateSummaries(userID string) {
	if n := s.summaryCache.DeleteByPrefix(userID + "|"); n > 0 {
		s.logger.Debug("summary cache invalidated", log.FieldUserID, userID, "entries", n)
	}
}
