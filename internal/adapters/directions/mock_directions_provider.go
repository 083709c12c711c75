package directions

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Driving time between two location keys.
type MockPair struct {
	From, To     string
	Meters       int
	Seconds      int
	DelaySeconds int
}

// One explicit timetabled run between two location keys.
type MockRun struct {
	From, To  string
	Departure time.Time
	Arrival   time.Time
	Line      string
}

// A headway-based service generating runs every Headway between First and Last
// (local wall clock, every day).
type MockService struct {
	From, To string
	First    domain.ClockTime
	Last     domain.ClockTime
	Headway  time.Duration
	Ride     time.Duration
	Line     string
}

// A recorded provider call.
type MockCall struct {
	Op   string // "drive" or "transit"
	From string
	To   string
	When ports.TimeConstraint
}

// MockDirectionsProvider is a deterministic in-memory DirectionsProvider.
//
// Transit forward queries return the first run departing at or after the
// requested time minus Leniency, mimicking providers that match a run already
// in progress. Arrive-by queries return the last run arriving at or before the
// requested time.
type MockDirectionsProvider struct {
	Leniency     time.Duration
	DefaultDrive *MockPair
	Location     *time.Location

	drives   map[string]MockPair
	runs     map[string][]MockRun
	services map[string]MockService
	failing  map[string]bool

	mu    sync.Mutex
	calls []MockCall
}

func NewMockDirectionsProvider(pairs []MockPair) *MockDirectionsProvider {
	m := make(map[string]MockPair, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = p
	}
	return &MockDirectionsProvider{
		drives:   m,
		runs:     map[string][]MockRun{},
		services: map[string]MockService{},
		failing:  map[string]bool{},
		Location: time.UTC,
	}
}

func (p *MockDirectionsProvider) AddRuns(runs ...MockRun) {
	for _, r := range runs {
		key := r.From + "|" + r.To
		p.runs[key] = append(p.runs[key], r)
		slices.SortFunc(p.runs[key], func(a, b MockRun) int { return a.Departure.Compare(b.Departure) })
	}
}

func (p *MockDirectionsProvider) AddService(s MockService) {
	p.services[s.From+"|"+s.To] = s
}

// Fail makes every query between the two keys return an error.
func (p *MockDirectionsProvider) Fail(from, to string) {
	p.failing[from+"|"+to] = true
}

func (p *MockDirectionsProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// CountCalls returns how many calls matched op and constraint kind.
func (p *MockDirectionsProvider) CountCalls(op string, kind ports.TimeConstraintKind) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Op == op && c.When.Kind == kind {
			n++
		}
	}
	return n
}

func (p *MockDirectionsProvider) record(op string, origin, destination domain.Location, when ports.TimeConstraint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, MockCall{Op: op, From: mockKey(origin), To: mockKey(destination), When: when})
}

func (p *MockDirectionsProvider) ComputeDrivingRoute(
	ctx context.Context,
	origin, destination domain.Location,
	when ports.TimeConstraint,
) (ports.DrivingResult, error) {
	p.record("drive", origin, destination, when)
	if err := ctx.Err(); err != nil {
		return ports.DrivingResult{}, err
	}

	key := mockKey(origin) + "|" + mockKey(destination)
	if p.failing[key] {
		return ports.DrivingResult{}, fmt.Errorf("mock drive %q: %w", key, ports.ErrNoResult)
	}

	r, ok := p.drives[key]
	if !ok {
		if p.DefaultDrive == nil {
			return ports.DrivingResult{}, fmt.Errorf("missing pair %q -> %q", mockKey(origin), mockKey(destination))
		}
		r = *p.DefaultDrive
	}

	return ports.DrivingResult{
		DurationSeconds:     r.Seconds,
		DistanceMeters:      r.Meters,
		TrafficDelaySeconds: r.DelaySeconds,
	}, nil
}

func (p *MockDirectionsProvider) ComputeTransitRoute(
	ctx context.Context,
	origin, destination domain.Location,
	mode ports.TransitPreference,
	when ports.TimeConstraint,
) (ports.TransitResult, error) {
	p.record("transit", origin, destination, when)
	if err := ctx.Err(); err != nil {
		return ports.TransitResult{}, err
	}

	key := mockKey(origin) + "|" + mockKey(destination)
	if p.failing[key] {
		return ports.TransitResult{}, fmt.Errorf("mock transit %q: %w", key, ports.ErrNoResult)
	}

	runs := p.runsAround(key, when.At)
	if len(runs) == 0 {
		return ports.TransitResult{}, fmt.Errorf("mock transit %q: %w", key, ports.ErrNoResult)
	}

	var match *MockRun
	if when.Kind == ports.ArriveBy {
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].Arrival.After(when.At) {
				match = &runs[i]
				break
			}
		}
	} else {
		earliest := when.At.Add(-p.Leniency)
		for i := range runs {
			if !runs[i].Departure.Before(earliest) {
				match = &runs[i]
				break
			}
		}
	}
	if match == nil {
		return ports.TransitResult{}, fmt.Errorf("mock transit %q at %s: %w", key, when.At, ports.ErrNoResult)
	}

	return ports.TransitResult{
		DurationSeconds: int(match.Arrival.Sub(match.Departure) / time.Second),
		Departure:       match.Departure,
		Arrival:         match.Arrival,
		LineLabel:       match.Line,
	}, nil
}

// runsAround returns explicit runs for key, or runs generated from a headway
// service for the day before, of, and after t.
func (p *MockDirectionsProvider) runsAround(key string, t time.Time) []MockRun {
	if runs, ok := p.runs[key]; ok {
		return runs
	}
	svc, ok := p.services[key]
	if !ok || svc.Headway <= 0 {
		return nil
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	var out []MockRun
	for _, day := range []time.Time{t.AddDate(0, 0, -1), t, t.AddDate(0, 0, 1)} {
		first := svc.First.On(day, loc)
		last := svc.Last.On(day, loc)
		for dep := first; !dep.After(last); dep = dep.Add(svc.Headway) {
			out = append(out, MockRun{From: svc.From, To: svc.To, Departure: dep, Arrival: dep.Add(svc.Ride), Line: svc.Line})
		}
	}
	return out
}

func mockKey(l domain.Location) string {
	if l.Key != "" {
		return l.Key
	}
	return l.Query()
}
