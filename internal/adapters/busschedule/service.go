package busschedule

import (
	"commute-service/internal/domain"
	"commute-service/internal/platform/metrics"
	"commute-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL          = 24 * time.Hour
	DefaultRetry        = 15 * time.Minute
	DefaultFetchTimeout = 30 * time.Second
)

// Where the schedule currently served came from.
const (
	SourceLive     = "live"
	SourceStore    = "store"
	SourceFallback = "fallback"
)

// Snapshot is the schedule currently served plus its provenance.
type Snapshot struct {
	ScheduleID string
	Schedule   domain.BusSchedule
	FetchedAt  time.Time
	Source     string
	// Stale is set when the last live refresh failed or was never attempted.
	Stale bool
}

// Service keeps a bus timetable fresh and answers next-bus queries against it.
//
// A live fetch happens at most once per TTL, and at most once at a time. When
// it fails the last-known-good schedule stays in use, taken from memory, then
// the store, then the embedded fallback, and the live source is retried after
// the retry interval. Service implements ports.BusScheduleProvider.
type Service struct {
	fetcher    Fetcher             // optional
	store      ports.ScheduleStore // optional
	scheduleID string

	TTL   time.Duration
	Retry time.Duration
	// Bounds one shared refresh, independent of the caller that started it.
	FetchTimeout time.Duration
	Location     *time.Location
	Now      func() time.Time
	Metrics  *metrics.Collector
	Logger   zerolog.Logger

	sf          singleflight.Group
	mu          sync.RWMutex
	current     *Snapshot
	nextAttempt time.Time
}

func NewService(fetcher Fetcher, store ports.ScheduleStore, scheduleID string, loc *time.Location) *Service {
	return &Service{
		fetcher:    fetcher,
		store:      store,
		scheduleID: scheduleID,
		TTL:          DefaultTTL,
		Retry:        DefaultRetry,
		FetchTimeout: DefaultFetchTimeout,
		Location:     loc,
		Now:          time.Now,
		Logger:       zerolog.Nop(),
	}
}

// Get returns the cached snapshot while it is fresh, refreshing otherwise.
func (s *Service) Get(ctx context.Context) (Snapshot, error) {
	now := s.Now()

	s.mu.RLock()
	cur, next := s.current, s.nextAttempt
	s.mu.RUnlock()

	if cur != nil {
		if cur.Source == SourceLive && now.Sub(cur.FetchedAt) < s.TTL {
			return *cur, nil
		}
		if now.Before(next) {
			return *cur, nil
		}
	}

	return s.Refresh(ctx, now)
}

// Refresh tries the live source now. Concurrent callers share one fetch, which
// runs detached from the first caller's cancellation and is bounded by
// FetchTimeout instead.
func (s *Service) Refresh(ctx context.Context, now time.Time) (Snapshot, error) {
	v, err, _ := s.sf.Do("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout())
		defer cancel()
		return s.refresh(fetchCtx, now)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (s *Service) refresh(ctx context.Context, now time.Time) (Snapshot, error) {
	if s.fetcher != nil {
		sched, err := s.fetcher.Fetch(ctx)
		if err == nil {
			sched = sched.Normalize()
			if sched.Empty() {
				err = errors.New("live schedule has no departures")
			}
		}
		if err == nil {
			snap := Snapshot{ScheduleID: s.scheduleID, Schedule: sched, FetchedAt: now, Source: SourceLive}
			s.set(&snap, time.Time{})
			s.Metrics.ScheduleRefresh("ok")
			s.persist(ctx, snap)
			s.Logger.Info().Time("fetched_at", now).Msg("bus schedule refreshed")
			return snap, nil
		}

		s.Metrics.ScheduleRefresh("error")
		s.Logger.Warn().Err(err).Dur("retry_in", s.retry()).Msg("bus schedule refresh failed, keeping last known good")
	}

	snap, err := s.lastKnownGood(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.set(&snap, now.Add(s.retry()))
	return snap, nil
}

// lastKnownGood returns the in-memory, stored or embedded schedule, marked stale.
func (s *Service) lastKnownGood(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil {
		snap := *cur
		snap.Stale = true
		return snap, nil
	}

	if s.store != nil {
		st, err := s.store.Load(ctx, s.scheduleID)
		switch {
		case err == nil && !st.Schedule.Empty():
			return Snapshot{ScheduleID: st.ScheduleID, Schedule: st.Schedule.Normalize(), FetchedAt: st.FetchedAt, Source: SourceStore, Stale: true}, nil
		case err != nil && !errors.Is(err, ports.ErrScheduleNotFound):
			s.Logger.Warn().Err(err).Msg("load stored bus schedule failed")
		}
	}

	sched, err := Fallback()
	if err != nil {
		return Snapshot{}, fmt.Errorf("bus schedule: no source available: %w", err)
	}
	s.Metrics.ScheduleRefresh("fallback")
	return Snapshot{ScheduleID: s.scheduleID, Schedule: sched, Source: SourceFallback, Stale: true}, nil
}

func (s *Service) persist(ctx context.Context, snap Snapshot) {
	if s.store == nil {
		return
	}
	err := s.store.Save(ctx, ports.StoredSchedule{ScheduleID: snap.ScheduleID, Schedule: snap.Schedule, FetchedAt: snap.FetchedAt})
	if err != nil {
		s.Logger.Warn().Err(err).Msg("persist bus schedule failed")
	}
}

func (s *Service) set(snap *Snapshot, nextAttempt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.nextAttempt = nextAttempt
}

func (s *Service) fetchTimeout() time.Duration {
	if s.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return s.FetchTimeout
}

func (s *Service) retry() time.Duration {
	if s.Retry <= 0 {
		return DefaultRetry
	}
	return s.Retry
}

func (s *Service) Schedule(ctx context.Context) (domain.BusSchedule, error) {
	snap, err := s.Get(ctx)
	if err != nil {
		return domain.BusSchedule{}, err
	}
	return snap.Schedule, nil
}

// NextBus returns the first departure at or after the instant, read on the
// timetable's civil calendar.
func (s *Service) NextBus(ctx context.Context, after time.Time, dir domain.BusDirection) (time.Time, bool, error) {
	sched, err := s.Schedule(ctx)
	if err != nil {
		return time.Time{}, false, err
	}

	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	dep, ok := sched.NextDeparture(after, dir, loc)
	return dep, ok, nil
}
