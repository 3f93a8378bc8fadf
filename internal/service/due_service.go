package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/cotisations/internal/calculator"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// DueService records dues, moves them between paid and unpaid, and
// generates a month's dues in bulk.
type DueService struct {
	store    storage.Store
	settings Settings
}

// NewDueService creates a new DueService with the given storage backend.
func NewDueService(store storage.Store, settings Settings) *DueService {
	return &DueService{store: store, settings: settings.withDefaults()}
}

// AddDueRequest describes a manual or imported due entry.
type AddDueRequest struct {
	ParticipantID int64
	Period        models.Period
	Amount        float64
	Paid          bool

	// Slot pins the due to one parcel or to the whole account.
	// When nil the amount is split evenly across all the participant's parcels.
	Slot models.Slot
}

// AddDueResult lists the records created by AddDue.
type AddDueResult struct {
	Dues    []*models.DueRecord
	Message string
}

// SetPaidRequest moves a due between paid and unpaid.
type SetPaidRequest struct {
	DueID int64
	Paid  bool

	// Amount optionally replaces the due's amount when it becomes paid,
	// e.g. when less than the nominal amount was collected.
	Amount *float64
}

// GenerateResult reports what GenerateMonth did.
type GenerateResult struct {
	Period   models.Period `json:"period"`
	Created  int           `json:"created"`
	Existing int           `json:"existing"`
}

// AddDue records a due for a participant.
//
// With an explicit Slot exactly one record is created for the full amount.
// Without one, the amount is divided across the participant's parcels and one
// record per parcel is created. Either all records are created or none is.
func (s *DueService) AddDue(ctx context.Context, req AddDueRequest) (*AddDueResult, error) {
	path := pathSplit
	if req.Slot != nil {
		path = pathSlot
	}
	return s.allocate(ctx, req, path)
}

func (s *DueService) allocate(ctx context.Context, req AddDueRequest, path string) (*AddDueResult, error) {
	slog.Info("AddDue request received",
		"participant_id", req.ParticipantID,
		"period", req.Period.Key(),
		"amount", req.Amount,
		"paid", req.Paid,
		"path", path,
	)

	if err := req.Period.Validate(); err != nil {
		return nil, err
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: %.2f", models.ErrInvalidAmount, req.Amount)
	}
	if p, ok := req.Slot.(models.PerParcel); ok && p.N < 1 {
		return nil, fmt.Errorf("%w: parcel number must be at least 1, got %d", models.ErrInvalidInput, p.N)
	}

	var result *AddDueResult
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		participant, err := tx.GetParticipant(ctx, req.ParticipantID)
		if err != nil {
			return err
		}

		var shares []calculator.ParcelShare
		if req.Slot == nil {
			if participant.ParcelCount < 1 {
				return fmt.Errorf("%w: %s", models.ErrNoParcels, participant.FullName())
			}
			shares, err = calculator.SplitAcrossParcels(req.Amount, participant.ParcelCount)
			if err != nil {
				return fmt.Errorf("%w: %v", models.ErrInvalidAmount, err)
			}
		}

		paidOn := s.paidOn(req.Paid)
		var dues []*models.DueRecord
		if req.Slot != nil {
			dues = append(dues, s.newDue(req, req.Slot, req.Amount, paidOn))
		} else {
			for _, share := range shares {
				dues = append(dues, s.newDue(req, models.PerParcel{N: share.Slot}, share.Amount, paidOn))
			}
		}

		for _, d := range dues {
			if err := s.insert(ctx, tx, d); err != nil {
				return err
			}
		}

		after := map[string]any{
			"participant_id": req.ParticipantID,
			"mois":           req.Period.Month,
			"annee":          req.Period.Year,
			"montant":        req.Amount,
			"paye":           req.Paid,
			"numero_terrain": nil,
		}
		if req.Slot == nil {
			after["nombre_terrains"] = len(dues)
			after["montant_par_terrain"] = dues[0].Amount
		} else if p, ok := req.Slot.(models.PerParcel); ok {
			after["numero_terrain"] = p.N
		}

		err = s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
			Action:   models.ActionCreate,
			Table:    models.TableDues,
			RecordID: dues[0].ID,
			Detail: fmt.Sprintf("Création cotisation(s) mois %d/%d - Montant: %s %s",
				req.Period.Month, req.Period.Year, formatFCFA(req.Amount), models.ParticipantTag(req.ParticipantID)),
			After: after,
		})
		if err != nil {
			return err
		}

		result = &AddDueResult{Dues: dues, Message: addDueMessage(req.Slot, dues)}
		return nil
	})
	if err != nil {
		slog.Error("AddDue failed", "participant_id", req.ParticipantID, "error", err)
		return nil, err
	}

	duesCreated.WithLabelValues(path).Add(float64(len(result.Dues)))
	slog.Info("Dues created", "participant_id", req.ParticipantID, "count", len(result.Dues))
	return result, nil
}

func (s *DueService) newDue(req AddDueRequest, slot models.Slot, amount float64, paidOn *time.Time) *models.DueRecord {
	return &models.DueRecord{
		ParticipantID: req.ParticipantID,
		Period:        req.Period,
		Amount:        amount,
		Paid:          req.Paid,
		PaidOn:        paidOn,
		Slot:          slot,
		CreatedAt:     s.settings.Now(),
	}
}

func (s *DueService) paidOn(paid bool) *time.Time {
	if !paid {
		return nil
	}
	today := s.settings.today()
	return &today
}

// insert checks the slot is free before inserting, so the caller gets a
// precise duplicate error. The unique index still guards against races.
func (s *DueService) insert(ctx context.Context, tx storage.Store, d *models.DueRecord) error {
	_, err := tx.FindDue(ctx, d.ParticipantID, d.Period, d.Slot)
	if err == nil {
		return fmt.Errorf("%w: participant %d, %s %s",
			models.ErrDuplicateDue, d.ParticipantID, d.Period.Label(), d.Slot.Label())
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return tx.InsertDue(ctx, d)
}

func addDueMessage(slot models.Slot, dues []*models.DueRecord) string {
	switch sl := slot.(type) {
	case nil:
		return fmt.Sprintf("Cotisation ajoutée avec succès (%d terrains, %s chacun)",
			len(dues), formatFCFA(dues[0].Amount))
	case models.PerParcel:
		return fmt.Sprintf("Cotisation ajoutée avec succès (Terrain n°%d)", sl.N)
	default:
		return "Cotisation ajoutée avec succès"
	}
}

// SetPaid marks a due paid or unpaid.
//
// Unpaid→Paid stamps today's date and applies the optional amount override.
// Paid→Unpaid clears the date and keeps the amount. Requests that do not
// change the state are accepted and leave the record and history untouched,
// unless they carry an amount, which is rejected with ErrInvalidInput.
func (s *DueService) SetPaid(ctx context.Context, req SetPaidRequest) (*models.DueRecord, error) {
	slog.Info("SetPaid request received", "due_id", req.DueID, "paid", req.Paid)

	if req.Amount != nil {
		if !req.Paid {
			return nil, fmt.Errorf("%w: an amount can only be given when marking a due paid", models.ErrInvalidInput)
		}
		if *req.Amount < 0 {
			return nil, fmt.Errorf("%w: %.2f", models.ErrInvalidAmount, *req.Amount)
		}
	}

	var (
		due     *models.DueRecord
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		due, err = tx.GetDue(ctx, req.DueID)
		if err != nil {
			return err
		}
		if due.Paid == req.Paid {
			if req.Amount != nil {
				return fmt.Errorf("%w: due %d is already paid", models.ErrInvalidInput, due.ID)
			}
			return nil
		}
		changed = true

		before := map[string]any{"paye": due.Paid}
		after := map[string]any{"paye": req.Paid}
		detail := "Cotisation marquée comme non payée"

		if req.Paid {
			due.Paid = true
			due.PaidOn = s.paidOn(true)
			detail = "Cotisation marquée comme payée"
			if req.Amount != nil && *req.Amount != due.Amount {
				before["montant"] = due.Amount
				after["montant"] = *req.Amount
				due.Amount = *req.Amount
				detail += " - Montant: " + formatFCFA(due.Amount)
			}
		} else {
			due.Paid = false
			due.PaidOn = nil
		}

		if err := tx.UpdateDue(ctx, due); err != nil {
			return err
		}
		return s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
			Action:   models.ActionUpdate,
			Table:    models.TableDues,
			RecordID: due.ID,
			Detail:   detail + " " + models.ParticipantTag(due.ParticipantID),
			Before:   before,
			After:    after,
		})
	})
	if err != nil {
		slog.Error("SetPaid failed", "due_id", req.DueID, "error", err)
		return nil, err
	}

	if changed {
		to := "unpaid"
		if req.Paid {
			to = "paid"
		}
		duePayments.WithLabelValues(to).Inc()
		slog.Info("Due payment updated", "due_id", due.ID, "paid", due.Paid, "amount", due.Amount)
	}
	return due, nil
}

// GenerateMonth creates the missing unpaid dues of period for every parcel of
// every participant, at the default amount. Existing slots are left alone, so
// running it twice for the same month creates nothing the second time.
// The whole run is one transaction.
func (s *DueService) GenerateMonth(ctx context.Context, period models.Period) (*GenerateResult, error) {
	slog.Info("GenerateMonth request received", "period", period.Key())

	if err := period.Validate(); err != nil {
		return nil, err
	}

	result := &GenerateResult{Period: period}
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		participants, err := tx.ListParticipants(ctx)
		if err != nil {
			return err
		}

		for _, p := range participants {
			if p.ParcelCount < 1 {
				continue
			}

			existing, err := tx.ListDues(ctx, storage.DueFilter{
				ParticipantID: p.ID,
				Year:          period.Year,
				Month:         period.Month,
			})
			if err != nil {
				return err
			}
			taken := make(map[int]bool, len(existing))
			for _, d := range existing {
				if slot, ok := d.Slot.(models.PerParcel); ok {
					taken[slot.N] = true
				}
			}

			missing, present := calculator.BulkSlots(p.ParcelCount, taken)
			result.Existing += present

			for _, n := range missing {
				d := &models.DueRecord{
					ParticipantID: p.ID,
					Period:        period,
					Amount:        s.settings.DefaultDueAmount,
					Slot:          models.PerParcel{N: n},
					CreatedAt:     s.settings.Now(),
				}
				if err := tx.InsertDue(ctx, d); err != nil {
					return err
				}
				err := s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
					Action:   models.ActionCreate,
					Table:    models.TableDues,
					RecordID: d.ID,
					Detail: fmt.Sprintf("Génération automatique %s (%s) - Montant: %s %s",
						period.Label(), d.Slot.Label(), formatFCFA(d.Amount), models.ParticipantTag(p.ID)),
					After: d.Snapshot(),
				})
				if err != nil {
					return err
				}
				result.Created++
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("GenerateMonth failed", "period", period.Key(), "error", err)
		return nil, err
	}

	duesCreated.WithLabelValues(pathGenerate).Add(float64(result.Created))
	slog.Info("GenerateMonth successful",
		"period", period.Key(),
		"created", result.Created,
		"existing", result.Existing,
	)
	return result, nil
}

// DeleteDue removes a single due record.
func (s *DueService) DeleteDue(ctx context.Context, id int64) error {
	slog.Info("DeleteDue request received", "due_id", id)

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		due, err := tx.GetDue(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteDue(ctx, id); err != nil {
			return err
		}

		detail := "Suppression cotisation " + due.Period.Label()
		if label := due.Slot.Label(); label != "" {
			detail += " (" + label + ")"
		}
		return s.settings.appendHistory(ctx, tx, &models.HistoryEntry{
			Action:   models.ActionDelete,
			Table:    models.TableDues,
			RecordID: id,
			Detail:   detail + " " + models.ParticipantTag(due.ParticipantID),
			Before:   due.Snapshot(),
		})
	})
	if err != nil {
		slog.Error("DeleteDue failed", "due_id", id, "error", err)
		return err
	}

	slog.Info("Due deleted", "due_id", id)
	return nil
}

// GetDue retrieves a due by ID.
func (s *DueService) GetDue(ctx context.Context, id int64) (*models.DueRecord, error) {
	return s.store.GetDue(ctx, id)
}

// ListDues retrieves dues matching filter.
func (s *DueService) ListDues(ctx context.Context, filter storage.DueFilter) ([]*models.DueRecord, error) {
	dues, err := s.store.ListDues(ctx, filter)
	if err != nil {
		slog.Error("ListDues failed", "error", err)
		return nil, err
	}
	return dues, nil
}
