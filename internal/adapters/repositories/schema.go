package repositories

import (
	"commute-service/internal/ports"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Dialect selects the SQL flavour for schema creation.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Initialize the database schema.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialect {
	case DialectSQLite:
		statements = []string{`
	CREATE TABLE IF NOT EXISTS bus_schedule_cache (
        schedule_id TEXT PRIMARY KEY,
        payload TEXT NOT NULL,
        fetched_at INTEGER NOT NULL
    );
	`}
	case DialectPostgres:
		statements = []string{`
	CREATE TABLE IF NOT EXISTS bus_schedule_cache (
        schedule_id TEXT PRIMARY KEY,
        payload JSONB NOT NULL,
        fetched_at TIMESTAMPTZ NOT NULL
    );
	`}
	default:
		return fmt.Errorf("init schema: unknown dialect %q", dialect)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Store a bus schedule read from a JSON file as the last-known-good copy.
func SeedScheduleFromJSON(ctx context.Context, store ports.ScheduleStore, scheduleID, jsonPath string, fetchedAt time.Time) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed schedule: read %q: %w", jsonPath, err)
	}

	st := ports.StoredSchedule{ScheduleID: scheduleID, FetchedAt: fetchedAt}
	if err := json.Unmarshal(bytes, &st.Schedule); err != nil {
		return fmt.Errorf("seed schedule: parse json: %w", err)
	}

	st.Schedule = st.Schedule.Normalize()
	if st.Schedule.Empty() {
		return fmt.Errorf("seed schedule: %q has no departures", jsonPath)
	}

	if err := store.Save(ctx, st); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}

	return nil
}
