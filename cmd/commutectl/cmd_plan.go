package main

import (
	"commute-service/internal/api/dto"
	"commute-service/internal/app"
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	planDirection string
	planAsOf      string
	planFormat    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the commute options for a direction",
	Long: `Compute the commute options for a direction and print them.

Examples:
  commutectl plan --direction toOffice
  commutectl plan --direction toHome --as-of 2026-03-10T16:30:00-05:00 --format json
`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planDirection, "direction", "d", string(domain.DirectionToOffice), "toOffice or toHome")
	planCmd.Flags().StringVar(&planAsOf, "as-of", "", "RFC3339 start time (defaults to now)")
	planCmd.Flags().StringVar(&planFormat, "format", "table", "Output format: table or json")
}

func runPlan(cmd *cobra.Command, args []string) error {
	dir, err := domain.ParseDirection(planDirection)
	if err != nil {
		return err
	}

	var asOf time.Time
	if planAsOf != "" {
		if asOf, err = time.Parse(time.RFC3339, planAsOf); err != nil {
			return fmt.Errorf("plan: --as-of must be RFC3339: %w", err)
		}
	}
	if planFormat != "table" && planFormat != "json" {
		return fmt.Errorf("plan: unknown --format %q", planFormat)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.BatchTimeout)
	defer cancel()

	batch, err := a.Commute.Compute(ctx, dir, asOf)
	if err != nil {
		return err
	}

	if planFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto.FromBatch(batch))
	}
	return printPlan(cmd.OutOrStdout(), batch, cfg.TimeZone)
}

// printPlan writes one block per route: a summary line then its segments.
func printPlan(w io.Writer, batch ports.CommuteBatch, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s as of %s\n\n", batch.Direction, batch.AsOf.In(loc).Format("Mon 3:04 PM"))

	for _, r := range batch.Routes {
		mark := " "
		if r.IsBest {
			mark = "*"
		}
		if r.HasError {
			fmt.Fprintf(tw, "%s %s\tunavailable\n", mark, r.Name)
		} else {
			fmt.Fprintf(tw, "%s %s\t%s -> %s\t%d min\n", mark, r.Name,
				clock(r.StartTime, loc), clock(r.ETA, loc), r.TotalDurationSeconds/60)
		}

		for _, s := range r.Segments {
			detail := s.Error
			if detail == "" {
				detail = strings.TrimSpace(strings.Join([]string{s.LineLabel, s.TrafficNote}, " "))
			}
			fmt.Fprintf(tw, "    %s\t%s -> %s\t%s -> %s\t%s\n", s.Mode, s.FromLabel, s.ToLabel,
				clock(s.DepartureTime, loc), clock(s.ArrivalTime, loc), detail)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func clock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "--"
	}
	return t.In(loc).Format("3:04 PM")
}
