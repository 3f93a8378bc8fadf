package service

import (
	"context"
	"testing"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

func TestHistoryLimits(t *testing.T) {
	tests := []struct {
		limit int
		def   int
		want  int
	}{
		{limit: 0, def: defaultHistoryLimit, want: 50},
		{limit: -3, def: defaultParticipantLimit, want: 20},
		{limit: 10, def: defaultHistoryLimit, want: 10},
		{limit: 10_000, def: defaultHistoryLimit, want: 500},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, tt.def); got != tt.want {
			t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.limit, tt.def, got, tt.want)
		}
	}
}

func TestHistoryForParticipant(t *testing.T) {
	svc, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	_, martin := seedLedger(t, svc)

	entries, err := svc.history.ForParticipant(ctx, martin.ID, 0)
	if err != nil {
		t.Fatalf("ForParticipant failed: %v", err)
	}
	// Creation plus two allocations.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Table == models.TableParticipants && e.RecordID != martin.ID {
			t.Errorf("foreign participant entry: %+v", e)
		}
		if e.Table == models.TableDues && e.After["participant_id"] != float64(martin.ID) {
			t.Errorf("foreign due entry: %+v", e)
		}
	}

	limited, err := svc.history.List(ctx, storage.HistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d entries, want 2", len(limited))
	}

	all, err := svc.history.List(ctx, storage.HistoryFilter{Table: models.TableDues, Action: models.ActionCreate})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d due creations, want 4", len(all))
	}
}
