package services

import (
	"commute-service/internal/domain"
	"commute-service/internal/platform/metrics"
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultPrefetchTolerance = 15 * time.Minute

// Upper bound on the wait for the next run of a timetable, used to build the
// arrive-by deadline of a backward correction.
var DefaultScheduledIntervals = map[domain.Mode]time.Duration{
	domain.ModeTrain: 30 * time.Minute,
	domain.ModePATH:  15 * time.Minute,
}

const defaultScheduledInterval = 20 * time.Minute

// RouteScheduler produces a time-consistent itinerary for one route.
//
// Every segment departs no earlier than the previous segment arrives. A plain
// forward walk cannot guarantee this for fixed-schedule transit, whose
// departure is chosen by the timetable rather than by the request, so the
// scheduler validates each transit leg against the rider's arrival at the stop
// and re-queries it once with an arrival constraint when the matched run
// leaves too early. Segments after a corrected leg are re-resolved from the
// corrected arrival.
type RouteScheduler struct {
	Resolver *SegmentResolver

	// Prefetched drive durations are reused while the segment's real anchor is
	// within this distance of the trip anchor.
	PrefetchTolerance  time.Duration
	ScheduledIntervals map[domain.Mode]time.Duration

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

func NewRouteScheduler(resolver *SegmentResolver) *RouteScheduler {
	return &RouteScheduler{
		Resolver:           resolver,
		PrefetchTolerance:  DefaultPrefetchTolerance,
		ScheduledIntervals: DefaultScheduledIntervals,
		Logger:             zerolog.Nop(),
	}
}

// Schedule resolves every segment of the route starting no earlier than asOf.
// It never fails as a whole: problems are reported through segment errors and
// RouteResult.HasError.
func (s *RouteScheduler) Schedule(ctx context.Context, route domain.RouteDescriptor, asOf time.Time) domain.RouteResult {
	logger := s.Logger.With().Str("route", route.Name).Logger()

	if len(route.Segments) == 0 {
		return domain.RouteResult{Name: route.Name, Segments: []domain.ResolvedSegment{}, HasError: true}
	}

	asOf = ceilSecond(asOf)

	prefetched := s.prefetchDrives(ctx, route, asOf)

	segs := make([]domain.ResolvedSegment, len(route.Segments))
	s.forward(ctx, route, 0, asOf, asOf, segs, prefetched)

	correctionFailed := false
	for i, desc := range route.Segments {
		if !desc.IsFixed() || segs[i].Failed() {
			continue
		}

		anchor := anchorBefore(segs, i, asOf)
		if !segs[i].DepartureTime.Before(anchor) {
			continue
		}

		s.Metrics.ContinuityViolation()
		logger.Debug().
			Int("segment", i).
			Time("anchor", anchor).
			Time("matched_departure", segs[i].DepartureTime).
			Msg("continuity violation, correcting backward")

		corrected := s.correct(ctx, route, segs, i, anchor)
		segs[i] = corrected
		if corrected.Failed() {
			logger.Info().Int("segment", i).Str("error", corrected.Error).Msg("backward correction failed")
			correctionFailed = true
			break
		}

		// Earlier prefetches were anchored on the rejected run; never replay them.
		s.forward(ctx, route, i+1, corrected.ArrivalTime, asOf, segs, nil)
	}

	return s.assemble(route, segs, correctionFailed, logger)
}

// prefetchDrives resolves every drive segment at the trip anchor concurrently.
// Entries for non-drive segments are nil.
func (s *RouteScheduler) prefetchDrives(ctx context.Context, route domain.RouteDescriptor, asOf time.Time) []*domain.ResolvedSegment {
	out := make([]*domain.ResolvedSegment, len(route.Segments))

	var g errgroup.Group
	for i, seg := range route.Segments {
		if seg.Kind != domain.KindDrive {
			continue
		}
		g.Go(func() error {
			rs := s.Resolver.Resolve(ctx, seg, domain.DepartAfterAnchor(asOf))
			out[i] = &rs
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// forward resolves segs[start:] in order, each anchored on the previous
// segment's arrival. A failed segment leaves the anchor where it was.
func (s *RouteScheduler) forward(
	ctx context.Context,
	route domain.RouteDescriptor,
	start int,
	anchor time.Time,
	asOf time.Time,
	segs []domain.ResolvedSegment,
	prefetched []*domain.ResolvedSegment,
) {
	for i := start; i < len(route.Segments); i++ {
		desc := route.Segments[i]

		var rs domain.ResolvedSegment
		if p := prefetchedAt(prefetched, i); p != nil && s.withinTolerance(anchor, asOf) {
			rs = replay(*p, anchor)
		} else {
			rs = s.Resolver.Resolve(ctx, desc, domain.DepartAfterAnchor(anchor))
		}

		segs[i] = rs
		if !rs.Failed() {
			anchor = rs.ArrivalTime
		}
	}
}

// correct re-queries the transit segment at index i with an arrival constraint
// and accepts the result only if it departs at or after anchor.
func (s *RouteScheduler) correct(
	ctx context.Context,
	route domain.RouteDescriptor,
	segs []domain.ResolvedSegment,
	i int,
	anchor time.Time,
) domain.ResolvedSegment {
	desc := route.Segments[i]
	deadline := s.correctionDeadline(route, segs, i, anchor)

	rs := s.Resolver.Resolve(ctx, desc, domain.ArriveByAnchor(deadline))
	if rs.Failed() {
		s.Metrics.BackwardCorrection(false)
		return rs
	}

	// Same run as the forward match (or another early one): still impossible.
	if rs.DepartureTime.Before(anchor) {
		s.Metrics.BackwardCorrection(false)
		return domain.FailedSegment(desc, domain.ErrTextNoConnection)
	}

	s.Metrics.BackwardCorrection(true)
	return rs
}

// correctionDeadline picks the arrive-by instant for a backward correction.
//
// The base deadline is anchor plus the forward-matched run's duration plus one
// scheduled interval for the mode. A later fixed segment's tentative departure
// (minus the non-fixed legs in between) only moves the deadline later: that
// departure was matched from the rejected run's arrival, so it is a lower
// bound on when the rider can continue, never an upper one.
func (s *RouteScheduler) correctionDeadline(
	route domain.RouteDescriptor,
	segs []domain.ResolvedSegment,
	i int,
	anchor time.Time,
) time.Time {
	runDuration := time.Duration(segs[i].DurationSeconds) * time.Second
	deadline := anchor.Add(runDuration + s.interval(route.Segments[i].TransitMode))

	var between time.Duration
	for j := i + 1; j < len(route.Segments); j++ {
		if segs[j].Failed() {
			break
		}
		if route.Segments[j].IsFixed() {
			if downstream := segs[j].DepartureTime.Add(-between); downstream.After(deadline) {
				deadline = downstream
			}
			break
		}
		between += time.Duration(segs[j].DurationSeconds) * time.Second
	}

	return deadline
}

// assemble validates the resolved segments and builds the RouteResult.
func (s *RouteScheduler) assemble(
	route domain.RouteDescriptor,
	segs []domain.ResolvedSegment,
	correctionFailed bool,
	logger zerolog.Logger,
) domain.RouteResult {
	hasError := correctionFailed

	for i := range segs {
		if segs[i].Failed() {
			hasError = true
			continue
		}
		if segs[i].DurationSeconds < 0 || segs[i].ArrivalTime.Before(segs[i].DepartureTime) {
			logger.Error().
				Int("segment", i).
				Time("departure", segs[i].DepartureTime).
				Time("arrival", segs[i].ArrivalTime).
				Msg("segment arrives before it departs")
			segs[i] = domain.FailedSegment(route.Segments[i], domain.ErrTextInternal)
			hasError = true
		}
	}

	if !hasError {
		if idx := domain.CheckContinuity(segs); idx >= 0 {
			logger.Error().Int("segment", idx).Msg("negative gap after reconciliation")
			segs[idx] = domain.FailedSegment(route.Segments[idx], domain.ErrTextInternal)
			hasError = true
		}
	}

	res := domain.RouteResult{
		Name:     route.Name,
		Segments: segs,
		HasError: hasError,
	}

	for _, seg := range segs {
		if !seg.Failed() {
			res.StartTime = seg.DepartureTime
			break
		}
	}
	for i := len(segs) - 1; i >= 0; i-- {
		if !segs[i].Failed() {
			res.ETA = segs[i].ArrivalTime
			break
		}
	}
	if !res.StartTime.IsZero() && !res.ETA.IsZero() && !res.ETA.Before(res.StartTime) {
		res.TotalDurationSeconds = int(res.ETA.Sub(res.StartTime) / time.Second)
	}

	return res
}

func (s *RouteScheduler) withinTolerance(anchor, asOf time.Time) bool {
	d := anchor.Sub(asOf)
	if d < 0 {
		d = -d
	}
	return d <= s.PrefetchTolerance
}

func (s *RouteScheduler) interval(m domain.Mode) time.Duration {
	if d, ok := s.ScheduledIntervals[m]; ok && d > 0 {
		return d
	}
	return defaultScheduledInterval
}

// anchorBefore is the arrival of the nearest resolved segment before i, or asOf.
func anchorBefore(segs []domain.ResolvedSegment, i int, asOf time.Time) time.Time {
	for j := i - 1; j >= 0; j-- {
		if !segs[j].Failed() {
			return segs[j].ArrivalTime
		}
	}
	return asOf
}

func prefetchedAt(prefetched []*domain.ResolvedSegment, i int) *domain.ResolvedSegment {
	if prefetched == nil || i >= len(prefetched) {
		return nil
	}
	return prefetched[i]
}

// replay moves a prefetched drive to start at anchor, keeping its duration.
func replay(p domain.ResolvedSegment, anchor time.Time) domain.ResolvedSegment {
	if p.Failed() {
		return p
	}
	p.DepartureTime = anchor
	p.ArrivalTime = anchor.Add(time.Duration(p.DurationSeconds) * time.Second)
	return p
}

// ceilSecond rounds t up to a whole second so every derived duration is exact.
func ceilSecond(t time.Time) time.Time {
	tr := t.Truncate(time.Second)
	if tr.Before(t) {
		return tr.Add(time.Second)
	}
	return tr
}
