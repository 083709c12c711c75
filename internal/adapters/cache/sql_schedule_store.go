package cache

import (
	"commute-service/internal/platform/obs"
	"commute-service/internal/ports"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SQLScheduleStore is a Postgres-backed last-known-good store for bus
// timetables, one row per schedule ID.
type SQLScheduleStore struct {
	DB *sql.DB
}

func NewSQLScheduleStore(db *sql.DB) *SQLScheduleStore {
	return &SQLScheduleStore{DB: db}
}

func (s *SQLScheduleStore) Load(ctx context.Context, scheduleID string) (_ ports.StoredSchedule, err error) {
	defer obs.Time(ctx, "schedule.store.Load")(&err)

	if s.DB == nil {
		return ports.StoredSchedule{}, errors.New("schedule store: db is nil")
	}

	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return ports.StoredSchedule{}, errors.New("load schedule: id must not be empty")
	}

	q := `
	SELECT payload, fetched_at
    FROM bus_schedule_cache
    WHERE schedule_id = $1;
	`

	var (
		payload []byte
		out     = ports.StoredSchedule{ScheduleID: scheduleID}
	)
	err = s.DB.QueryRowContext(ctx, q, scheduleID).Scan(&payload, &out.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.StoredSchedule{}, ports.ErrScheduleNotFound
	}
	if err != nil {
		return ports.StoredSchedule{}, fmt.Errorf("load schedule %q: %w", scheduleID, err)
	}

	if err := json.Unmarshal(payload, &out.Schedule); err != nil {
		return ports.StoredSchedule{}, fmt.Errorf("load schedule %q: decode payload: %w", scheduleID, err)
	}

	return out, nil
}

func (s *SQLScheduleStore) Save(ctx context.Context, st ports.StoredSchedule) (err error) {
	defer obs.Time(ctx, "schedule.store.Save")(&err)

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

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO bus_schedule_cache (schedule_id, payload, fetched_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (schedule_id) DO UPDATE
	SET payload = EXCLUDED.payload,
		fetched_at = EXCLUDED.fetched_at;
	`, st.ScheduleID, payload, st.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("save schedule %q: %w", st.ScheduleID, err)
	}

	return nil
}
