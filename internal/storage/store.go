// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/cotisations/internal/models"
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	ParticipantStore
	DueStore
	HistoryStore
	UserStore

	// WithTx runs fn against a store bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	// Calling WithTx on a store that is already transactional reuses the
	// same transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Backup writes a consistent copy of the database to path.
	Backup(ctx context.Context, path string) error

	// Close releases any resources held by the store.
	Close() error
}

// ParticipantStore persists participants.
type ParticipantStore interface {
	// CreateParticipant inserts p and populates p.ID and p.CreatedAt.
	// Returns models.ErrDuplicateParticipant if the name pair is taken.
	CreateParticipant(ctx context.Context, p *models.Participant) error

	// GetParticipant returns models.ErrNotFound if id does not exist.
	GetParticipant(ctx context.Context, id int64) (*models.Participant, error)

	// FindParticipantByName returns models.ErrNotFound if no participant matches.
	FindParticipantByName(ctx context.Context, surname, givenName string) (*models.Participant, error)

	// ListParticipants returns all participants ordered by surname, given name.
	ListParticipants(ctx context.Context) ([]*models.Participant, error)

	// UpdateParticipant overwrites all fields of p.
	// Returns models.ErrNotFound if p.ID does not exist.
	UpdateParticipant(ctx context.Context, p *models.Participant) error

	// DeleteParticipant removes the participant and, by cascade, its dues.
	// Returns the number of participants removed (0 or 1).
	DeleteParticipant(ctx context.Context, id int64) (int64, error)
}

// DueFilter narrows ListDues. Zero values mean "any".
type DueFilter struct {
	ParticipantID int64
	Year          int
	Month         int
	Paid          *bool
}

// DueStore persists due records.
type DueStore interface {
	// InsertDue inserts d and populates d.ID and d.CreatedAt.
	// Returns models.ErrDuplicateDue if (participant, period, slot) exists
	// and models.ErrInvalidAmount if the amount is negative.
	InsertDue(ctx context.Context, d *models.DueRecord) error

	// GetDue returns models.ErrNotFound if id does not exist.
	GetDue(ctx context.Context, id int64) (*models.DueRecord, error)

	// FindDue looks up the due for (participant, period, slot).
	// Returns models.ErrNotFound if there is none.
	FindDue(ctx context.Context, participantID int64, period models.Period, slot models.Slot) (*models.DueRecord, error)

	// UpdateDue overwrites amount, paid flag and payment date of d.
	// Returns models.ErrNotFound if d.ID does not exist.
	UpdateDue(ctx context.Context, d *models.DueRecord) error

	// DeleteDue returns models.ErrNotFound if id does not exist.
	DeleteDue(ctx context.Context, id int64) error

	// ListDues returns dues ordered by year, month, participant and slot.
	ListDues(ctx context.Context, filter DueFilter) ([]*models.DueRecord, error)

	// DueYears returns the distinct years that have dues, most recent first.
	DueYears(ctx context.Context) ([]int, error)
}

// HistoryFilter narrows ListHistory. Empty fields mean "any".
type HistoryFilter struct {
	Table  models.Table
	Action models.Action

	// ParticipantID selects participant entries about this participant and
	// due entries whose detail mentions it.
	ParticipantID int64

	Limit int
}

// HistoryStore is the append-only audit log. It has no update or delete.
type HistoryStore interface {
	// AppendHistory inserts e and populates e.ID.
	AppendHistory(ctx context.Context, e *models.HistoryEntry) error

	// ListHistory returns the most recent entries first, at most filter.Limit.
	ListHistory(ctx context.Context, filter HistoryFilter) ([]*models.HistoryEntry, error)
}

// UserStore persists staff accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByUsername returns models.ErrNotFound if there is no such user.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	CountUsers(ctx context.Context) (int, error)
}
