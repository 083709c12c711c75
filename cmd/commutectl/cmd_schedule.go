package main

import (
	"commute-service/internal/adapters/busschedule"
	"commute-service/internal/adapters/repositories"
	"commute-service/internal/app"
	"commute-service/internal/config"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE:  runMigrate,
}

var (
	seedFile      string
	seedID        string
	seedFetchedAt string
)

var seedScheduleCmd = &cobra.Command{
	Use:   "seed-schedule",
	Short: "Store a bus schedule JSON file as the last-known-good copy",
	Long: `Store a bus schedule JSON file as the last-known-good copy.

The file uses the same shape as GET /bus-schedule's "schedule" field:
  {"weekday": {"eastbound": ["06:15", ...], "westbound": [...]},
   "weekend": {...}}

Examples:
  commutectl seed-schedule --file data/bus.json
  commutectl seed-schedule --file data/bus.json --fetched-at 2026-03-01T00:00:00Z
`,
	RunE: runSeedSchedule,
}

var refreshScheduleCmd = &cobra.Command{
	Use:   "refresh-schedule",
	Short: "Scrape the live bus schedule now and persist it",
	RunE:  runRefreshSchedule,
}

func init() {
	seedScheduleCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the schedule JSON file")
	seedScheduleCmd.Flags().StringVar(&seedID, "id", "", "Schedule ID (defaults to BUS_SCHEDULE_ID)")
	seedScheduleCmd.Flags().StringVar(&seedFetchedAt, "fetched-at", "", "RFC3339 fetch time to record (defaults to now)")
	_ = seedScheduleCmd.MarkFlagRequired("file")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBBackend == config.DBNone {
		return errors.New("migrate: DB_BACKEND is none, nothing to do")
	}

	conn, _, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info().Str("db", string(cfg.DBBackend)).Msg("schema ready")
	return nil
}

func runSeedSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBBackend == config.DBNone {
		return errors.New("seed-schedule: DB_BACKEND is none, no store to seed")
	}

	fetchedAt := time.Now()
	if seedFetchedAt != "" {
		if fetchedAt, err = time.Parse(time.RFC3339, seedFetchedAt); err != nil {
			return fmt.Errorf("seed-schedule: --fetched-at must be RFC3339: %w", err)
		}
	}

	id := seedID
	if id == "" {
		id = cfg.BusScheduleID
	}

	conn, store, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.SeedScheduleFromJSON(cmd.Context(), store, id, seedFile, fetchedAt); err != nil {
		return err
	}

	logger.Info().Str("schedule_id", id).Str("file", seedFile).Msg("schedule seeded")
	return nil
}

func runRefreshSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.BusScheduleURL == "" {
		return errors.New("refresh-schedule: BUS_SCHEDULE_URL is not set")
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Buses.Refresh(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	if snap.Source != busschedule.SourceLive {
		return fmt.Errorf("refresh-schedule: live fetch failed, still serving %s schedule", snap.Source)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "refreshed schedule %q: weekday %d/%d, weekend %d/%d departures (east/west)\n",
		snap.ScheduleID,
		len(snap.Schedule.Weekday.Eastbound), len(snap.Schedule.Weekday.Westbound),
		len(snap.Schedule.Weekend.Eastbound), len(snap.Schedule.Weekend.Westbound),
	)
	return nil
}
