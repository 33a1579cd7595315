package http

import (
	"net/http"

	"finvue/internal/export"
	"finvue/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := s.deps.Engine.Dashboard(r.Context(), ParseSelection(q, s.deps.Now()), ParseTrendOptions(q))
	NewResponse().JSON(d).Write(w)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	points := s.deps.Engine.Trend(r.Context(), ParseTrendOptions(r.URL.Query()))
	NewResponse().JSON(points).Write(w)
}

// handleExport downloads the whole ledger in store order. An empty ledger
// answers 204.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	txs := s.deps.Service.Ledger().List()
	if len(txs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(s.deps.Now())+`"`)
	if err := export.Write(w, txs); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Failed to write export", err, log.OpExport, nil)
	}
}
