package models

import "errors"

// Ledger errors. Storage and services wrap these with fmt.Errorf("...: %w"),
// so callers should match them with errors.Is.
var (
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrDuplicateDue         = errors.New("due already exists for this period and parcel")
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrNoParcels            = errors.New("participant has no parcels")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrInvalidInput         = errors.New("invalid input")
)
