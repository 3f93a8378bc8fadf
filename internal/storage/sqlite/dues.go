package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

const (
	dueColumns = `id, participant_id, month, year, amount, paid, paid_on, parcel_slot, created_at`

	// paidOnLayout is the storage format of payment dates.
	paidOnLayout = "2006-01-02"
)

type dueRow struct {
	ID            int64          `db:"id"`
	ParticipantID int64          `db:"participant_id"`
	Month         int            `db:"month"`
	Year          int            `db:"year"`
	Amount        float64        `db:"amount"`
	Paid          bool           `db:"paid"`
	PaidOn        sql.NullString `db:"paid_on"`
	ParcelSlot    sql.NullInt64  `db:"parcel_slot"`
	CreatedAt     int64          `db:"created_at"`
}

func (r dueRow) toModel() (*models.DueRecord, error) {
	d := &models.DueRecord{
		ID:            r.ID,
		ParticipantID: r.ParticipantID,
		Period:        models.Period{Month: r.Month, Year: r.Year},
		Amount:        r.Amount,
		Paid:          r.Paid,
		Slot:          models.WholeAccount{},
		CreatedAt:     time.Unix(r.CreatedAt, 0),
	}
	if r.ParcelSlot.Valid {
		d.Slot = models.PerParcel{N: int(r.ParcelSlot.Int64)}
	}
	if r.PaidOn.Valid {
		paidOn, err := time.ParseInLocation(paidOnLayout, r.PaidOn.String, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse payment date of due %d: %w", r.ID, err)
		}
		d.PaidOn = &paidOn
	}
	return d, nil
}

// slotValue maps a slot to its column value: NULL for WholeAccount.
func slotValue(slot models.Slot) interface{} {
	switch s := slot.(type) {
	case models.PerParcel:
		return s.N
	case models.WholeAccount:
		return nil
	default:
		panic(fmt.Sprintf("unknown slot type %T", slot))
	}
}

func paidOnValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(paidOnLayout)
}

// InsertDue persists a new due record.
func (s *SQLiteStore) InsertDue(ctx context.Context, d *models.DueRecord) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO cotisations (participant_id, month, year, amount, paid, paid_on, parcel_slot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ParticipantID, d.Period.Month, d.Period.Year, d.Amount, d.Paid,
		paidOnValue(d.PaidOn), slotValue(d.Slot), d.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: participant %d, %s %s",
			models.ErrDuplicateDue, d.ParticipantID, d.Period.Key(), d.Slot.Label())
	}
	if err != nil {
		return fmt.Errorf("failed to insert due: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read due id: %w", err)
	}
	d.ID = id
	return nil
}

// GetDue retrieves a due record by ID.
func (s *SQLiteStore) GetDue(ctx context.Context, id int64) (*models.DueRecord, error) {
	var row dueRow
	err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+dueColumns+` FROM cotisations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("due %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get due: %w", err)
	}
	return row.toModel()
}

// FindDue retrieves the due for a participant, period and slot.
func (s *SQLiteStore) FindDue(ctx context.Context, participantID int64, period models.Period, slot models.Slot) (*models.DueRecord, error) {
	query := `SELECT ` + dueColumns + ` FROM cotisations
		WHERE participant_id = ? AND month = ? AND year = ? AND `
	args := []interface{}{participantID, period.Month, period.Year}

	switch sl := slot.(type) {
	case models.PerParcel:
		query += "parcel_slot = ?"
		args = append(args, sl.N)
	case models.WholeAccount:
		query += "parcel_slot IS NULL"
	default:
		return nil, fmt.Errorf("unknown slot type %T", slot)
	}

	var row dueRow
	err := sqlx.GetContext(ctx, s.q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("due for participant %d %s: %w", participantID, period.Key(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find due: %w", err)
	}
	return row.toModel()
}

// UpdateDue overwrites amount, paid flag and payment date.
func (s *SQLiteStore) UpdateDue(ctx context.Context, d *models.DueRecord) error {
	if d.Amount < 0 {
		return fmt.Errorf("%w: %.2f", models.ErrInvalidAmount, d.Amount)
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE cotisations SET amount = ?, paid = ?, paid_on = ? WHERE id = ?`,
		d.Amount, d.Paid, paidOnValue(d.PaidOn), d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update due: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("due %d: %w", d.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteDue removes a due record by ID.
func (s *SQLiteStore) DeleteDue(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM cotisations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete due: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("due %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListDues retrieves dues matching the filter.
func (s *SQLiteStore) ListDues(ctx context.Context, filter storage.DueFilter) ([]*models.DueRecord, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ParticipantID != 0 {
		conds = append(conds, "participant_id = ?")
		args = append(args, filter.ParticipantID)
	}
	if filter.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, filter.Year)
	}
	if filter.Month != 0 {
		conds = append(conds, "month = ?")
		args = append(args, filter.Month)
	}
	if filter.Paid != nil {
		conds = append(conds, "paid = ?")
		args = append(args, *filter.Paid)
	}

	query := `SELECT ` + dueColumns + ` FROM cotisations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year, month, participant_id, IFNULL(parcel_slot, 0)"

	var rows []dueRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}

	dues := make([]*models.DueRecord, 0, len(rows))
	for _, r := range rows {
		d, err := r.toModel()
		if err != nil {
			return nil, err
		}
		dues = append(dues, d)
	}
	return dues, nil
}

// DueYears returns the distinct years present in the ledger, newest first.
func (s *SQLiteStore) DueYears(ctx context.Context) ([]int, error) {
	var years []int
	err := sqlx.SelectContext(ctx, s.q, &years, "SELECT DISTINCT year FROM cotisations ORDER BY year DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list due years: %w", err)
	}
	return years, nil
}
