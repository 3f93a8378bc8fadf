package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/cotisations/internal/models"
)

const participantColumns = `id, surname, given_name, parcel_count, phone, email, created_at`

type participantRow struct {
	ID          int64          `db:"id"`
	Surname     string         `db:"surname"`
	GivenName   string         `db:"given_name"`
	ParcelCount int            `db:"parcel_count"`
	Phone       sql.NullString `db:"phone"`
	Email       sql.NullString `db:"email"`
	CreatedAt   int64          `db:"created_at"`
}

func (r participantRow) toModel() *models.Participant {
	p := &models.Participant{
		ID:          r.ID,
		Surname:     r.Surname,
		GivenName:   r.GivenName,
		ParcelCount: r.ParcelCount,
		CreatedAt:   time.Unix(r.CreatedAt, 0),
	}
	if r.Phone.Valid {
		p.Phone = r.Phone.String
	}
	if r.Email.Valid {
		p.Email = r.Email.String
	}
	return p
}

// nullable stores empty strings as NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateParticipant persists a new participant.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO participants (surname, given_name, parcel_count, phone, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Surname, p.GivenName, p.ParcelCount, nullable(p.Phone), nullable(p.Email), p.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %s", models.ErrDuplicateParticipant, p.Surname, p.GivenName)
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read participant id: %w", err)
	}
	p.ID = id
	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	var row participantRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return row.toModel(), nil
}

// FindParticipantByName retrieves a participant by its (surname, given name) pair.
func (s *SQLiteStore) FindParticipantByName(ctx context.Context, surname, givenName string) (*models.Participant, error) {
	var row participantRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT `+participantColumns+` FROM participants WHERE surname = ? AND given_name = ?`,
		surname, givenName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s %s: %w", surname, givenName, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return row.toModel(), nil
}

// ListParticipants retrieves all participants ordered by name.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	var rows []participantRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+participantColumns+` FROM participants ORDER BY surname, given_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*models.Participant, len(rows))
	for i, r := range rows {
		participants[i] = r.toModel()
	}
	return participants, nil
}

// UpdateParticipant overwrites a participant's fields.
func (s *SQLiteStore) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE participants
		 SET surname = ?, given_name = ?, parcel_count = ?, phone = ?, email = ?
		 WHERE id = ?`,
		p.Surname, p.GivenName, p.ParcelCount, nullable(p.Phone), nullable(p.Email), p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %s", models.ErrDuplicateParticipant, p.Surname, p.GivenName)
	}
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %d: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteParticipant removes a participant. Its dues go with it through
// ON DELETE CASCADE.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	return n, nil
}
