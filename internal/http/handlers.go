package http

import (
	"context"
	"net/http"
	"time"

	"paycheck/internal/log"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Set("status", "ok").
		Set("timestamp", time.Now().UTC().Format(time.RFC3339)).
		Set("uptime", time.Since(s.started).Round(time.Second).String()).
		Set("security", s.metrics.snapshot()).
		Write(w)
}

// handleReady reports whether storage answers within five seconds.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["storage"] = "failed: " + err.Error()
			NewJSONResponse().
				Status(http.StatusServiceUnavailable).
				Set("status", "not_ready").
				Set("checks", checks).
				Write(w)
			return
		}
	}
	NewJSONResponse().Set("status", "ready").Set("checks", checks).Write(w)
}

// writeError logs unexpected failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, nil)
	}
	resp.Write(w)
}
