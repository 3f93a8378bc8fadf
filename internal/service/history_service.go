package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

const (
	defaultHistoryLimit     = 50
	defaultParticipantLimit = 20
	maxHistoryLimit         = 500
)

// HistoryService reads the audit log.
type HistoryService struct {
	store storage.HistoryStore
}

// NewHistoryService creates a new HistoryService with the given storage backend.
func NewHistoryService(store storage.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// List returns the most recent entries matching filter.
// The limit defaults to 50 and is capped at 500.
func (s *HistoryService) List(ctx context.Context, filter storage.HistoryFilter) ([]*models.HistoryEntry, error) {
	slog.Info("ListHistory request received",
		"table", filter.Table,
		"action", filter.Action,
		"limit", filter.Limit,
	)

	filter.Limit = clampLimit(filter.Limit, defaultHistoryLimit)
	entries, err := s.store.ListHistory(ctx, filter)
	if err != nil {
		slog.Error("ListHistory failed", "error", err)
		return nil, err
	}
	return entries, nil
}

// ForParticipant returns the entries about a participant and its dues,
// most recent first. The limit defaults to 20.
func (s *HistoryService) ForParticipant(ctx context.Context, participantID int64, limit int) ([]*models.HistoryEntry, error) {
	slog.Info("ParticipantHistory request received", "participant_id", participantID)

	entries, err := s.store.ListHistory(ctx, storage.HistoryFilter{
		ParticipantID: participantID,
		Limit:         clampLimit(limit, defaultParticipantLimit),
	})
	if err != nil {
		slog.Error("ParticipantHistory failed", "participant_id", participantID, "error", err)
		return nil, err
	}
	return entries, nil
}
