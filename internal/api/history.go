package api

import (
	"fmt"
	"net/http"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	filter := storage.HistoryFilter{}

	switch table := models.Table(r.URL.Query().Get("table")); table {
	case "", models.TableParticipants, models.TableDues:
		filter.Table = table
	default:
		writeError(w, r, fmt.Errorf("%w: unknown table %q", models.ErrInvalidInput, table))
		return
	}
	switch action := models.Action(r.URL.Query().Get("action")); action {
	case "", models.ActionCreate, models.ActionUpdate, models.ActionDelete:
		filter.Action = action
	default:
		writeError(w, r, fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, action))
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit != nil {
		filter.Limit = *limit
	}

	entries, err := s.services.History.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toHistoryResponses(entries))
}
