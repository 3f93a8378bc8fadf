package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/cotisations/internal/importer"
	"github.com/mmynk/cotisations/internal/service"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}

	dashboard, err := s.services.Reports.Dashboard(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", dashboard)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	paidOnly, err := queryBool(r, "paid_only")
	if err != nil {
		writeError(w, r, err)
		return
	}

	pivot, err := s.services.Reports.Export(r.Context(), service.ExportOptions{Year: year, PaidOnly: paidOnly})
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := "cotisations.csv"
	if year != nil {
		name = fmt.Sprintf("cotisations_%d.csv", *year)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := importer.WritePivot(w, pivot); err != nil {
		// Headers are already sent.
		slog.Error("Export write failed", "error", err)
	}
}
