package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cotisations/internal/calculator"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// ParticipantService manages participants and records their history.
type ParticipantService struct {
	store    storage.Store
	settings Settings
}

// NewParticipantService creates a new ParticipantService with the given storage backend.
func NewParticipantService(store storage.Store, settings Settings) *ParticipantService {
	return &ParticipantService{store: store, settings: settings.withDefaults()}
}

// ParticipantStats summarises a participant's dues.
type ParticipantStats struct {
	ParticipantID int64           `json:"participant_id"`
	PaidCount     int             `json:"paid_count"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	UnpaidCount   int             `json:"unpaid_count"`
	UnpaidTotal   decimal.Decimal `json:"unpaid_total"`
}

// normalize trims names and checks the fields a participant must have.
func normalize(p *models.Participant) error {
	p.Surname = strings.TrimSpace(p.Surname)
	p.GivenName = strings.TrimSpace(p.GivenName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)

	if p.Surname == "" || p.GivenName == "" {
		return fmt.Errorf("%w: surname and given name are required", models.ErrInvalidInput)
	}
	if p.ParcelCount < 0 {
		return fmt.Errorf("%w: parcel count cannot be negative, got %d", models.ErrInvalidInput, p.ParcelCount)
	}
	return nil
}

// Create adds a participant. The (surname, given name) pair must be unused.
func (s *ParticipantService) Create(ctx context.Context, p *models.Participant) error {
	slog.Info("CreateParticipant request received",
		"surname", p.Surname,
		"given_name", p.GivenName,
		"parcel_count", p.ParcelCount,
	)

	if err := normalize(p); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		return s.create(ctx, tx, p)
	})
	if err != nil {
		slog.Error("CreateParticipant failed", "error", err)
		return err
	}

	slog.Info("Participant created", "participant_id", p.ID)
	return nil
}

// create inserts p and its history entry on tx.
func (s *ParticipantService) create(ctx context.Context, tx storage.Store, p *models.Participant) error {
	p.CreatedAt = s.settings.Now()
	if err := tx.CreateParticipant(ctx, p); err != nil {
		return err
	}
	return s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
		Action:   models.ActionCreate,
		Table:    models.TableParticipants,
		RecordID: p.ID,
		Detail:   "Création participant " + p.FullName(),
		After:    p.Snapshot(),
	})
}

// Get retrieves a participant by ID.
func (s *ParticipantService) Get(ctx context.Context, id int64) (*models.Participant, error) {
	return s.store.GetParticipant(ctx, id)
}

// FindByName retrieves a participant by surname and given name.
func (s *ParticipantService) FindByName(ctx context.Context, surname, givenName string) (*models.Participant, error) {
	return s.store.FindParticipantByName(ctx, strings.TrimSpace(surname), strings.TrimSpace(givenName))
}

// List retrieves all participants ordered by surname, given name.
func (s *ParticipantService) List(ctx context.Context) ([]*models.Participant, error) {
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("ListParticipants failed", "error", err)
		return nil, err
	}
	return participants, nil
}

// Update overwrites a participant's fields.
func (s *ParticipantService) Update(ctx context.Context, p *models.Participant) error {
	slog.Info("UpdateParticipant request received", "participant_id", p.ID)

	if err := normalize(p); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		before, err := tx.GetParticipant(ctx, p.ID)
		if err != nil {
			return err
		}
		p.CreatedAt = before.CreatedAt

		if err := tx.UpdateParticipant(ctx, p); err != nil {
			return err
		}
		return s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
			Action:   models.ActionUpdate,
			Table:    models.TableParticipants,
			RecordID: p.ID,
			Detail:   "Modification participant " + p.FullName(),
			Before:   before.Snapshot(),
			After:    p.Snapshot(),
		})
	})
	if err != nil {
		slog.Error("UpdateParticipant failed", "participant_id", p.ID, "error", err)
		return err
	}

	slog.Info("Participant updated", "participant_id", p.ID)
	return nil
}

// Delete removes a participant and all its dues.
// Deleting an unknown participant succeeds without recording anything.
func (s *ParticipantService) Delete(ctx context.Context, id int64) error {
	slog.Info("DeleteParticipant request received", "participant_id", id)

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		before, err := tx.GetParticipant(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		dues, err := tx.ListDues(ctx, storage.DueFilter{ParticipantID: id})
		if err != nil {
			return err
		}

		n, err := tx.DeleteParticipant(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		snap := before.Snapshot()
		snap["nombre_cotisations"] = len(dues)
		return s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
			Action:   models.ActionDelete,
			Table:    models.TableParticipants,
			RecordID: id,
			Detail:   fmt.Sprintf("Suppression participant %s (%d cotisation(s))", before.FullName(), len(dues)),
			Before:   snap,
		})
	})
	if err != nil {
		slog.Error("DeleteParticipant failed", "participant_id", id, "error", err)
		return err
	}
	return nil
}

// Stats totals a participant's paid and unpaid dues.
func (s *ParticipantService) Stats(ctx context.Context, id int64) (*ParticipantStats, error) {
	if _, err := s.store.GetParticipant(ctx, id); err != nil {
		return nil, err
	}

	dues, err := s.store.ListDues(ctx, storage.DueFilter{ParticipantID: id})
	if err != nil {
		slog.Error("ParticipantStats failed", "participant_id", id, "error", err)
		return nil, err
	}

	c := calculator.SummarizeDues(dueAmounts(dues))
	return &ParticipantStats{
		ParticipantID: id,
		PaidCount:     c.PaidCount,
		PaidTotal:     c.Collected,
		UnpaidCount:   c.UnpaidCount,
		UnpaidTotal:   c.Outstanding,
	}, nil
}

func dueAmounts(dues []*models.DueRecord) []calculator.DueAmount {
	amounts := make([]calculator.DueAmount, len(dues))
	for i, d := range dues {
		amounts[i] = calculator.DueAmount{Amount: d.Amount, Paid: d.Paid}
	}
	return amounts
}
