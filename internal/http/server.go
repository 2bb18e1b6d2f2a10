package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"paycheck/internal/ledger"
	"paycheck/internal/log"
	"paycheck/internal/services"
)

// Dependencies are the collaborators the API serves.
type Dependencies struct {
	Dashboards *services.DashboardService
	Ledgers    *ledger.Set
	// Ready reports whether storage is reachable; nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimit caps mutating requests per client per minute; zero uses 60.
	RateLimit int
}

type Server struct {
	http.Server
	dashboards  *services.DashboardService
	ledgers     *ledger.Set
	ready       func(ctx context.Context) error
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		dashboards:  deps.Dashboards,
		ledgers:     deps.Ledgers,
		ready:       deps.Ready,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(deps.RateLimit, time.Minute),
		metrics:     &securityMetrics{},
		started:     time.Now(),
	}
	s.rateLimiter.start()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /dashboard/{view}", s.handleDashboardView)

	mux.HandleFunc("GET /uploads", s.handleListUploads)
	mux.HandleFunc("POST /uploads", s.handleUpload)
	mux.HandleFunc("DELETE /uploads", s.handleClearUploads)
	mux.HandleFunc("DELETE /uploads/{name}", s.handleRemoveUpload)

	mux.HandleFunc("GET /ledgers/{ledger}", s.handleGetLedger)
	mux.HandleFunc("POST /ledgers/{ledger}/entries", s.handleAddEntry)
	mux.HandleFunc("DELETE /ledgers/{ledger}/entries", s.handleClearEntries)
	mux.HandleFunc("PUT /ledgers/{ledger}/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /ledgers/{ledger}/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("PUT /ledgers/{ledger}/budget", s.handleSetBudget)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter sweeper and the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withMiddleware assigns a request ID and a request-scoped logger, then
// applies security checks and access logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	inner := log.Middleware(s.logger)(s.withSecurity(next))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := generateRequestID()
		w.Header().Set("X-Request-ID", id)
		inner.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := log.FromContext(ctx)
		access := log.NewStructuredLogger(logger)
		clientIP := extractClientIP(r)

		access.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		setSecurityHeaders(w.Header())
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldMethod, r.Method)
			ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter records the status code for access logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
