package http

import (
	"net/http"

	"paycheck/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboards.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, log.OpCompute, err)
		return
	}
	NewJSONResponse().Set("dashboard", d).Write(w)
}

// handleDashboardView returns a single named view, e.g. /dashboard/expense_pivot.
func (s *Server) handleDashboardView(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("view")
	d, err := s.dashboards.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, log.OpCompute, err)
		return
	}
	v, ok := d.View(name)
	if !ok {
		NotFoundError("unknown view " + name).Write(w)
		return
	}
	NewJSONResponse().Set("view", name).Set("data", v).Write(w)
}
