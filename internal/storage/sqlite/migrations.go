package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: participants must be created BEFORE cotisations due to the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS participants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    surname TEXT NOT NULL,
    given_name TEXT NOT NULL,
    parcel_count INTEGER NOT NULL DEFAULT 0 CHECK (parcel_count >= 0),
    phone TEXT,
    email TEXT,
    created_at INTEGER NOT NULL,
    UNIQUE (surname, given_name)
);

CREATE TABLE IF NOT EXISTS cotisations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_id INTEGER NOT NULL,
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    year INTEGER NOT NULL,
    amount REAL NOT NULL CHECK (amount >= 0),
    paid INTEGER NOT NULL DEFAULT 0,
    paid_on TEXT,
    parcel_slot INTEGER CHECK (parcel_slot IS NULL OR parcel_slot >= 1),
    created_at INTEGER NOT NULL,
    FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE
);

-- A NULL parcel_slot is a whole-account due. IFNULL folds it to 0 so that it
-- is its own key instead of escaping the constraint like a plain NULL would.
CREATE UNIQUE INDEX IF NOT EXISTS idx_cotisations_unique_slot
    ON cotisations(participant_id, year, month, IFNULL(parcel_slot, 0));

CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    occurred_at INTEGER NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL CHECK (action IN ('CREATE', 'UPDATE', 'DELETE')),
    table_name TEXT NOT NULL,
    record_id INTEGER NOT NULL,
    detail TEXT NOT NULL,
    before_json TEXT,
    after_json TEXT
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cotisations_participant ON cotisations(participant_id);
CREATE INDEX IF NOT EXISTS idx_cotisations_year ON cotisations(year);
CREATE INDEX IF NOT EXISTS idx_cotisations_paid ON cotisations(paid);
CREATE INDEX IF NOT EXISTS idx_history_occurred_at ON history(occurred_at);
CREATE INDEX IF NOT EXISTS idx_history_table_record ON history(table_name, record_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
