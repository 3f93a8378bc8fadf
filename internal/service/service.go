// Package service implements the dues ledger operations on top of a storage.Store.
// Every mutation runs in a store transaction together with its history entry.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mmynk/cotisations/internal/middleware"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// Settings carries the tunables shared by the ledger services.
type Settings struct {
	// DefaultDueAmount is what the bulk generator charges per parcel.
	DefaultDueAmount float64

	// MinImportAmount is the smallest imported cell accepted.
	MinImportAmount float64

	// ParcelPrice values one parcel for the expected-total statistic.
	ParcelPrice float64

	// PhoneCountryCode is prepended to local 9-digit numbers in reminder links.
	PhoneCountryCode string

	// OrgName signs reminder messages.
	OrgName string

	// Now returns the current time. Tests inject a fixed clock.
	Now func() time.Time
}

// DefaultSettings returns the association's standard values.
func DefaultSettings() Settings {
	return Settings{
		DefaultDueAmount: models.DefaultDueAmount,
		MinImportAmount:  models.MinImportAmount,
		ParcelPrice:      models.ParcelPrice,
		PhoneCountryCode: "242",
		OrgName:          "MEDD",
		Now:              time.Now,
	}
}

// withDefaults fills unset fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.DefaultDueAmount <= 0 {
		s.DefaultDueAmount = d.DefaultDueAmount
	}
	if s.MinImportAmount <= 0 {
		s.MinImportAmount = d.MinImportAmount
	}
	if s.ParcelPrice <= 0 {
		s.ParcelPrice = d.ParcelPrice
	}
	if s.PhoneCountryCode == "" {
		s.PhoneCountryCode = d.PhoneCountryCode
	}
	if s.OrgName == "" {
		s.OrgName = d.OrgName
	}
	if s.Now == nil {
		s.Now = d.Now
	}
	return s
}

// today returns the current date at midnight in the clock's location.
func (s Settings) today() time.Time {
	now := s.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// appendHistory stamps e with the request actor and the clock, then stores it.
func (s Settings) appendHistory(ctx context.Context, st storage.HistoryStore, e *models.HistoryEntry) error {
	e.Actor = middleware.Actor(ctx)
	e.OccurredAt = s.Now()
	if err := st.AppendHistory(ctx, e); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// fcfa renders whole francs with a space thousands separator, e.g. "3 000 FCFA".
var fcfa = money.NewFormatter(0, ",", " ", "FCFA", "1 $")

// formatFCFA formats an amount in CFA francs, rounded to the franc.
func formatFCFA(amount float64) string {
	return formatDecimalFCFA(decimal.NewFromFloat(amount))
}

func formatDecimalFCFA(amount decimal.Decimal) string {
	m := money.New(amount.Round(0).IntPart(), money.XAF)
	return fcfa.Format(m.Amount())
}
