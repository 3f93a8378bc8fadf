package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// defaultHistoryLimit applies when a filter leaves Limit unset.
const defaultHistoryLimit = 50

type historyRow struct {
	ID         int64          `db:"id"`
	OccurredAt int64          `db:"occurred_at"`
	Actor      string         `db:"actor"`
	Action     string         `db:"action"`
	TableName  string         `db:"table_name"`
	RecordID   int64          `db:"record_id"`
	Detail     string         `db:"detail"`
	BeforeJSON sql.NullString `db:"before_json"`
	AfterJSON  sql.NullString `db:"after_json"`
}

func (r historyRow) toModel() (*models.HistoryEntry, error) {
	e := &models.HistoryEntry{
		ID:         r.ID,
		OccurredAt: time.Unix(0, r.OccurredAt),
		Actor:      r.Actor,
		Action:     models.Action(r.Action),
		Table:      models.Table(r.TableName),
		RecordID:   r.RecordID,
		Detail:     r.Detail,
	}
	var err error
	if e.Before, err = decodeSnapshot(r.BeforeJSON); err != nil {
		return nil, fmt.Errorf("failed to decode history %d: %w", r.ID, err)
	}
	if e.After, err = decodeSnapshot(r.AfterJSON); err != nil {
		return nil, fmt.Errorf("failed to decode history %d: %w", r.ID, err)
	}
	return e, nil
}

func encodeSnapshot(snap map[string]any) (interface{}, error) {
	if snap == nil {
		return nil, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeSnapshot(s sql.NullString) (map[string]any, error) {
	if !s.Valid {
		return nil, nil
	}
	var snap map[string]any
	if err := json.Unmarshal([]byte(s.String), &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// AppendHistory appends an entry to the audit log.
func (s *SQLiteStore) AppendHistory(ctx context.Context, e *models.HistoryEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	before, err := encodeSnapshot(e.Before)
	if err != nil {
		return fmt.Errorf("failed to encode history before value: %w", err)
	}
	after, err := encodeSnapshot(e.After)
	if err != nil {
		return fmt.Errorf("failed to encode history after value: %w", err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO history (occurred_at, actor, action, table_name, record_id, detail, before_json, after_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OccurredAt.UnixNano(), e.Actor, string(e.Action), string(e.Table), e.RecordID, e.Detail, before, after,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read history id: %w", err)
	}
	e.ID = id
	return nil
}

// ListHistory retrieves history entries, most recent first.
func (s *SQLiteStore) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*models.HistoryEntry, error) {
	query := `SELECT id, occurred_at, actor, action, table_name, record_id, detail, before_json, after_json
		FROM history WHERE 1=1`
	var args []interface{}

	if filter.Table != "" {
		query += " AND table_name = ?"
		args = append(args, string(filter.Table))
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, string(filter.Action))
	}
	if filter.ParticipantID != 0 {
		query += ` AND ((table_name = ? AND record_id = ?) OR (table_name = ? AND instr(detail, ?) > 0))`
		args = append(args,
			string(models.TableParticipants), filter.ParticipantID,
			string(models.TableDues), models.ParticipantTag(filter.ParticipantID),
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query += " ORDER BY occurred_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var rows []historyRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]*models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
