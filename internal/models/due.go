package models

import (
	"fmt"
	"time"
)

// Default amounts, in FCFA.
const (
	// DefaultDueAmount is the monthly due for one parcel.
	DefaultDueAmount = 1000.0

	// MinImportAmount is the smallest amount accepted from a spreadsheet import.
	MinImportAmount = 500.0

	// ParcelPrice is the full price of one parcel, used for the expected total.
	ParcelPrice = 2_500_000.0
)

// Slot says which parcel a due belongs to.
// It is either PerParcel or WholeAccount; use a type switch to handle both.
type Slot interface {
	// Label renders the slot for messages ("Terrain n°2", or "" for WholeAccount).
	Label() string
	isSlot()
}

// PerParcel is a due owed for one specific parcel, numbered from 1.
type PerParcel struct {
	N int
}

func (s PerParcel) Label() string { return fmt.Sprintf("Terrain n°%d", s.N) }
func (PerParcel) isSlot()          {}

// WholeAccount is a legacy due recorded before per-parcel tracking,
// covering the participant's whole account.
type WholeAccount struct{}

func (WholeAccount) Label() string { return "" }
func (WholeAccount) isSlot()       {}

// SlotNumber returns the parcel number for PerParcel and 0 for WholeAccount.
func SlotNumber(s Slot) int {
	switch v := s.(type) {
	case PerParcel:
		return v.N
	case WholeAccount:
		return 0
	default:
		panic(fmt.Sprintf("unknown slot type %T", s))
	}
}

// SlotFromNumber is the inverse of SlotNumber: n <= 0 maps to WholeAccount.
func SlotFromNumber(n int) Slot {
	if n <= 0 {
		return WholeAccount{}
	}
	return PerParcel{N: n}
}

// DueRecord represents one monthly due ("cotisation").
// At most one record exists per (ParticipantID, Period, Slot).
type DueRecord struct {
	// ID is assigned by the store on insert.
	ID int64

	// ParticipantID references the owning participant.
	ParticipantID int64

	// Period is the month the due is owed for.
	Period Period

	// Amount is the amount owed, or the amount actually collected once paid
	// with an override. Never negative.
	Amount float64

	// Paid is true once the due has been collected.
	Paid bool

	// PaidOn is the payment date. It is set only when Paid is true.
	PaidOn *time.Time

	// Slot is the parcel the due belongs to.
	Slot Slot

	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
}

// Validate checks the record's period, amount and slot.
func (d *DueRecord) Validate() error {
	if err := d.Period.Validate(); err != nil {
		return err
	}
	if d.Amount < 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidAmount, d.Amount)
	}
	if d.Slot == nil {
		return fmt.Errorf("due record has no slot")
	}
	if p, ok := d.Slot.(PerParcel); ok && p.N < 1 {
		return fmt.Errorf("parcel slot must be at least 1, got %d", p.N)
	}
	return nil
}

// Snapshot returns the fields recorded in history entries.
func (d *DueRecord) Snapshot() map[string]any {
	snap := map[string]any{
		"participant_id": d.ParticipantID,
		"mois":           d.Period.Month,
		"annee":          d.Period.Year,
		"montant":        d.Amount,
		"paye":           d.Paid,
		"numero_terrain": nil,
	}
	if p, ok := d.Slot.(PerParcel); ok {
		snap["numero_terrain"] = p.N
	}
	return snap
}
