package cache

import (
	"commute-service/internal/ports"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite backed last-known-good store for bus timetables.
// fetched_at is stored as Unix seconds.
type SqliteScheduleStore struct {
	DB *sql.DB
}

func NewSqliteScheduleStore(db *sql.DB) *SqliteScheduleStore {
	return &SqliteScheduleStore{DB: db}
}

func (s *SqliteScheduleStore) Load(ctx context.Context, scheduleID string) (ports.StoredSchedule, error) {
	if s.DB == nil {
		return ports.StoredSchedule{}, errors.New("schedule store: db is nil")
	}

	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return ports.StoredSchedule{}, errors.New("load schedule: id must not be empty")
	}

	var (
		payload   string
		fetchedAt int64
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT
        payload,
        fetched_at
    FROM bus_schedule_cache
    WHERE schedule_id = ?;
	`, scheduleID).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.StoredSchedule{}, ports.ErrScheduleNotFound
	}
	if err != nil {
		return ports.StoredSchedule{}, fmt.Errorf("load schedule %q: %w", scheduleID, err)
	}

	out := ports.StoredSchedule{
		ScheduleID: scheduleID,
		FetchedAt:  time.Unix(fetchedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(payload), &out.Schedule); err != nil {
		return ports.StoredSchedule{}, fmt.Errorf("load schedule %q: decode payload: %w", scheduleID, err)
	}

	return out, nil
}

func (s *SqliteScheduleStore) Save(ctx context.Context, st ports.StoredSchedule) error {
	if s.DB == nil {
		return errors.New("schedule store: db is nil")
	}

	if strings.TrimSpace(st.ScheduleID) == "" {
		return errors.New("save schedule: id must not be empty")
	}

	payload, err := json.Marshal(st.Schedule)
	if err != nil {
		return fmt.Errorf("save schedule %q: encode payload: %w", st.ScheduleID, err)
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO bus_schedule_cache (
        schedule_id,
        payload,
        fetched_at
    )
    VALUES (?, ?, ?)
	`, st.ScheduleID, string(payload), st.FetchedAt.Unix()); err != nil {
		return fmt.Errorf("save schedule %q: %w", st.ScheduleID, err)
	}

	return nil
}
