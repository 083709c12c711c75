package services

import (
	"commute-service/internal/domain"
	"commute-service/internal/platform/metrics"
	"commute-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const DefaultProviderTimeout = 8 * time.Second

// SegmentResolver turns one SegmentDescriptor plus an Anchor into one
// ResolvedSegment. Provider failures are converted to segment errors here and
// never returned to callers.
//
// The resolver holds no per-request state and is safe for concurrent use.
type SegmentResolver struct {
	Directions ports.DirectionsProvider
	Buses      ports.BusScheduleProvider

	// Timeout applied to every individual provider call.
	CallTimeout time.Duration

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

func NewSegmentResolver(directions ports.DirectionsProvider, buses ports.BusScheduleProvider) *SegmentResolver {
	return &SegmentResolver{
		Directions:  directions,
		Buses:       buses,
		CallTimeout: DefaultProviderTimeout,
		Logger:      zerolog.Nop(),
	}
}

// Resolve the descriptor against the anchor.
func (r *SegmentResolver) Resolve(ctx context.Context, seg domain.SegmentDescriptor, anchor domain.Anchor) domain.ResolvedSegment {
	var (
		out domain.ResolvedSegment
		err error
	)

	switch seg.Kind {
	case domain.KindWalk:
		out = r.resolveWalk(seg, anchor)
	case domain.KindDrive:
		out, err = r.resolveDrive(ctx, seg, anchor)
	case domain.KindTransit:
		out, err = r.resolveTransit(ctx, seg, anchor)
	case domain.KindBus:
		out, err = r.resolveBus(ctx, seg, anchor)
	default:
		err = fmt.Errorf("resolve segment: unknown kind %q", seg.Kind)
		out = domain.FailedSegment(seg, domain.ErrTextInternal)
	}

	if err != nil {
		r.Logger.Warn().
			Err(err).
			Str("kind", string(seg.Kind)).
			Str("from", seg.FromLabel).
			Str("to", seg.ToLabel).
			Time("anchor", anchor.At).
			Msg("segment unresolved")
	}

	return out
}

func (r *SegmentResolver) resolveWalk(seg domain.SegmentDescriptor, anchor domain.Anchor) domain.ResolvedSegment {
	secs := int(seg.WalkDuration / time.Second)
	dep, arr := place(anchor, secs)

	return domain.ResolvedSegment{
		Mode:            domain.ModeWalk,
		FromLabel:       seg.FromLabel,
		ToLabel:         seg.ToLabel,
		DurationSeconds: secs,
		DepartureTime:   dep,
		ArrivalTime:     arr,
	}
}

// Drive duration is always queried as a departure at the anchor instant; in
// backward mode that is a best-effort traffic estimate.
func (r *SegmentResolver) resolveDrive(ctx context.Context, seg domain.SegmentDescriptor, anchor domain.Anchor) (domain.ResolvedSegment, error) {
	res, err := r.drive(ctx, seg.From, seg.To, anchor.At)
	if err != nil {
		return domain.FailedSegment(seg, domain.ErrTextAPI), fmt.Errorf("resolve drive: %w", err)
	}

	dep, arr := place(anchor, res.DurationSeconds)
	meters := res.DistanceMeters

	return domain.ResolvedSegment{
		Mode:            domain.ModeDrive,
		FromLabel:       seg.FromLabel,
		ToLabel:         seg.ToLabel,
		DurationSeconds: res.DurationSeconds,
		DepartureTime:   dep,
		ArrivalTime:     arr,
		DistanceMeters:  &meters,
		TrafficNote:     trafficNote(res.TrafficDelaySeconds),
	}, nil
}

// The provider's run is returned as-is, even if it departs before a forward
// anchor; continuity is the scheduler's concern.
func (r *SegmentResolver) resolveTransit(ctx context.Context, seg domain.SegmentDescriptor, anchor domain.Anchor) (domain.ResolvedSegment, error) {
	when := ports.TimeConstraint{Kind: ports.DepartAt, At: anchor.At}
	if anchor.Kind == domain.ArriveBy {
		when.Kind = ports.ArriveBy
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.Directions.ComputeTransitRoute(callCtx, seg.From, seg.To, transitPreference(seg.TransitMode), when)
	r.Metrics.ObserveProviderCall("directions", "transit", time.Since(start), err)
	if err != nil {
		return domain.FailedSegment(seg, domain.ErrTextAPI), fmt.Errorf("resolve transit: %w", err)
	}
	if res.Departure.IsZero() || res.Arrival.IsZero() {
		return domain.FailedSegment(seg, domain.ErrTextAPI), errors.New("resolve transit: provider returned a run without times")
	}

	meters := res.DistanceMeters

	return domain.ResolvedSegment{
		Mode:            seg.Mode(),
		FromLabel:       seg.FromLabel,
		ToLabel:         seg.ToLabel,
		DurationSeconds: int(res.Arrival.Sub(res.Departure) / time.Second),
		DepartureTime:   res.Departure,
		ArrivalTime:     res.Arrival,
		DistanceMeters:  &meters,
		LineLabel:       res.LineLabel,
	}, nil
}

func (r *SegmentResolver) resolveBus(ctx context.Context, seg domain.SegmentDescriptor, anchor domain.Anchor) (domain.ResolvedSegment, error) {
	if anchor.Kind != domain.DepartAfter {
		return domain.FailedSegment(seg, domain.ErrTextInternal), errors.New("resolve bus: only departure anchors are supported")
	}

	callCtx, cancel := r.callContext(ctx)
	start := time.Now()
	busDep, found, err := r.Buses.NextBus(callCtx, anchor.At, seg.BusDirection)
	cancel()
	r.Metrics.ObserveProviderCall("bus_schedule", "next_bus", time.Since(start), err)
	if err != nil {
		return domain.FailedSegment(seg, domain.ErrTextAPI), fmt.Errorf("resolve bus: next bus: %w", err)
	}
	if !found {
		return domain.FailedSegment(seg, domain.ErrTextNoBus), nil
	}

	res, err := r.drive(ctx, seg.From, seg.To, busDep)
	if err != nil {
		return domain.FailedSegment(seg, domain.ErrTextAPI), fmt.Errorf("resolve bus: road leg: %w", err)
	}

	meters := res.DistanceMeters

	return domain.ResolvedSegment{
		Mode:            domain.ModeBus,
		FromLabel:       seg.FromLabel,
		ToLabel:         seg.ToLabel,
		DurationSeconds: res.DurationSeconds,
		DepartureTime:   busDep,
		ArrivalTime:     busDep.Add(time.Duration(res.DurationSeconds) * time.Second),
		DistanceMeters:  &meters,
		TrafficNote:     trafficNote(res.TrafficDelaySeconds),
	}, nil
}

func (r *SegmentResolver) drive(ctx context.Context, from, to domain.Location, at time.Time) (ports.DrivingResult, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.Directions.ComputeDrivingRoute(callCtx, from, to, ports.TimeConstraint{Kind: ports.DepartAt, At: at})
	r.Metrics.ObserveProviderCall("directions", "drive", time.Since(start), err)
	if err != nil {
		return ports.DrivingResult{}, err
	}
	if res.DurationSeconds < 0 {
		return ports.DrivingResult{}, fmt.Errorf("negative duration %ds", res.DurationSeconds)
	}
	return res, nil
}

func (r *SegmentResolver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.CallTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// place pins a segment of the given length to the anchor.
func place(anchor domain.Anchor, secs int) (dep, arr time.Time) {
	d := time.Duration(secs) * time.Second
	if anchor.Kind == domain.ArriveBy {
		return anchor.At.Add(-d), anchor.At
	}
	return anchor.At, anchor.At.Add(d)
}

func transitPreference(m domain.Mode) ports.TransitPreference {
	switch m {
	case domain.ModeTrain:
		return ports.TransitTrain
	case domain.ModePATH:
		return ports.TransitPATH
	}
	return ports.TransitAny
}

func trafficNote(delaySeconds int) string {
	mins := delaySeconds / 60
	switch {
	case mins >= 15:
		return fmt.Sprintf("Heavy traffic (+%d min)", mins)
	case mins >= 5:
		return fmt.Sprintf("Moderate traffic (+%d min)", mins)
	case mins >= 1:
		return fmt.Sprintf("Light traffic (+%d min)", mins)
	}
	return ""
}
