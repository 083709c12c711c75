package services

import (
	"commute-service/internal/domain"
	"commute-service/internal/platform/metrics"
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

const DefaultMaxConcurrency = 8

type routeOutcome struct {
	index  int
	result domain.RouteResult
}

// BatchProcessor schedules every route of a direction concurrently and ranks
// the results.
type BatchProcessor struct {
	Scheduler *RouteScheduler

	// Upper bound on routes scheduled at the same time.
	MaxConcurrency int

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

func NewBatchProcessor(scheduler *RouteScheduler) *BatchProcessor {
	return &BatchProcessor{
		Scheduler:      scheduler,
		MaxConcurrency: DefaultMaxConcurrency,
		Logger:         zerolog.Nop(),
	}
}

// Process schedules all routes against the same anchor.
//
// Routes are independent: one route's failure or slowness never changes
// another route's result. If ctx ends before a route finishes, that route is
// reported as an error instead of being waited for.
func (b *BatchProcessor) Process(
	ctx context.Context,
	dir domain.Direction,
	routes []domain.RouteDescriptor,
	asOf time.Time,
) []domain.RouteResult {
	if len(routes) == 0 {
		return []domain.RouteResult{}
	}

	limit := b.MaxConcurrency
	if limit < 1 {
		limit = DefaultMaxConcurrency
	}

	sem := make(chan struct{}, limit)
	// Buffered so abandoned workers never block after Process returns.
	resultsCh := make(chan routeOutcome, len(routes))

	for i, route := range routes {
		go func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resultsCh <- routeOutcome{index: i, result: timedOut(route)}
				return
			}
			defer func() { <-sem }()

			resultsCh <- routeOutcome{index: i, result: b.Scheduler.Schedule(ctx, route, asOf)}
		}()
	}

	results, done := collectOutcomes(ctx, resultsCh, len(routes))

	for i := range results {
		if !done[i] {
			b.Logger.Warn().Str("route", routes[i].Name).Msg("route not finished before deadline")
			results[i] = timedOut(routes[i])
		}
		b.Metrics.RouteComputed(string(dir), results[i].HasError)
	}

	return RankRoutes(results)
}

// collectOutcomes receives up to n outcomes until ctx ends. Outcomes already
// delivered when ctx ends are still collected.
func collectOutcomes(ctx context.Context, ch <-chan routeOutcome, n int) ([]domain.RouteResult, []bool) {
	results := make([]domain.RouteResult, n)
	done := make([]bool, n)

	take := func(out routeOutcome) {
		results[out.index] = out.result
		done[out.index] = true
	}

	for pending := n; pending > 0; {
		select {
		case out := <-ch:
			take(out)
			pending--
		case <-ctx.Done():
			for ; pending > 0; pending-- {
				select {
				case out := <-ch:
					take(out)
				default:
					return results, done
				}
			}
		}
	}

	return results, done
}

// RankRoutes orders error-free routes before failed ones and flags the best.
//
// The best route is the error-free route with the lowest total duration (the
// earliest configured wins ties); it is placed first. Remaining error-free
// routes keep their configured order, followed by failed routes in configured
// order.
func RankRoutes(results []domain.RouteResult) []domain.RouteResult {
	ok := make([]domain.RouteResult, 0, len(results))
	failed := make([]domain.RouteResult, 0)

	for _, r := range results {
		r.IsBest = false
		if r.HasError {
			failed = append(failed, r)
			continue
		}
		ok = append(ok, r)
	}

	if len(ok) > 0 {
		best := 0
		for i := 1; i < len(ok); i++ {
			if ok[i].TotalDurationSeconds < ok[best].TotalDurationSeconds {
				best = i
			}
		}
		ok[best].IsBest = true
		winner := ok[best]
		ok = slices.Delete(ok, best, best+1)
		ok = slices.Insert(ok, 0, winner)
	}

	return append(ok, failed...)
}

func timedOut(route domain.RouteDescriptor) domain.RouteResult {
	segs := make([]domain.ResolvedSegment, 0, len(route.Segments))
	for _, s := range route.Segments {
		segs = append(segs, domain.FailedSegment(s, domain.ErrTextTimedOut))
	}
	return domain.RouteResult{Name: route.Name, Segments: segs, HasError: true}
}
