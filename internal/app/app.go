// Package app assembles the service from configuration. Both the HTTP server
// and the CLI build their object graph here.
package app

import (
	"commute-service/internal/adapters/busschedule"
	"commute-service/internal/adapters/cache"
	"commute-service/internal/adapters/directions"
	"commute-service/internal/adapters/publisher"
	"commute-service/internal/adapters/repositories"
	"commute-service/internal/config"
	"commute-service/internal/platform/db"
	"commute-service/internal/platform/metrics"
	"commute-service/internal/ports"
	"commute-service/internal/services"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// App is the wired service graph.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Collector

	DB     *sql.DB             // nil when DB_BACKEND=none
	Store  ports.ScheduleStore // nil when DB_BACKEND=none
	Buses  *busschedule.Service
	Routes *repositories.YAMLRouteRepository

	Resolver  *services.SegmentResolver
	Scheduler *services.RouteScheduler
	Batch     *services.BatchProcessor
	Commute   *services.CommuteService

	closers []func() error
}

// New wires every component described by cfg. Optional backends (Redis,
// NATS) that cannot be reached are logged and skipped.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if cfg.MetricsEnabled {
		a.Metrics = metrics.NewCollector()
	}

	if a.DB, a.Store, err = OpenStore(ctx, cfg); err != nil {
		return nil, err
	}
	if a.DB != nil {
		a.closers = append(a.closers, a.DB.Close)
	}

	if a.Routes, err = repositories.NewYAMLRouteRepository(cfg.RoutesPath, repositories.AddressOverrides{
		"home":   cfg.HomeAddress,
		"office": cfg.OfficeAddress,
	}); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	if a.Buses, err = a.newBusService(); err != nil {
		return nil, err
	}

	provider, err := a.newDirections(ctx)
	if err != nil {
		return nil, err
	}

	a.Resolver = services.NewSegmentResolver(provider, a.Buses)
	a.Resolver.CallTimeout = cfg.ProviderTimeout
	a.Resolver.Metrics = a.Metrics
	a.Resolver.Logger = component(logger, "resolver")

	a.Scheduler = services.NewRouteScheduler(a.Resolver)
	a.Scheduler.PrefetchTolerance = cfg.PrefetchTolerance
	a.Scheduler.Metrics = a.Metrics
	a.Scheduler.Logger = component(logger, "scheduler")

	a.Batch = services.NewBatchProcessor(a.Scheduler)
	a.Batch.MaxConcurrency = cfg.MaxConcurrency
	a.Batch.Metrics = a.Metrics
	a.Batch.Logger = component(logger, "batch")

	a.Commute = services.NewCommuteService(a.Routes, a.Batch)
	a.Commute.Logger = component(logger, "commute")

	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, results will not be published")
		} else {
			a.Commute.Publisher = pub
			a.closers = append(a.closers, func() error { pub.Close(); return nil })
		}
	}

	return a, nil
}

// Close releases every backend opened by New, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the configured database, creates the schema and returns the
// matching schedule store. Both results are nil for DB_BACKEND=none.
func OpenStore(ctx context.Context, cfg *config.Config) (*sql.DB, ports.ScheduleStore, error) {
	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)

	switch cfg.DBBackend {
	case config.DBNone:
		return nil, nil, nil
	case config.DBSQLite:
		conn, err = db.OpenSQLite(cfg.DBPath)
		dialect = repositories.DialectSQLite
	case config.DBPostgres:
		conn, err = db.Open(cfg.DatabaseURL)
		dialect = repositories.DialectPostgres
	default:
		return nil, nil, fmt.Errorf("open store: unknown backend %q", cfg.DBBackend)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if dialect == repositories.DialectPostgres {
		return conn, cache.NewSQLScheduleStore(conn), nil
	}
	return conn, cache.NewSqliteScheduleStore(conn), nil
}

func (a *App) newBusService() (*busschedule.Service, error) {
	cfg := a.Config

	var fetcher busschedule.Fetcher
	if cfg.BusScheduleURL != "" {
		s, err := busschedule.NewScraper(cfg.BusScheduleURL, nil)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		fetcher = s
	}

	svc := busschedule.NewService(fetcher, a.Store, cfg.BusScheduleID, cfg.TimeZone)
	svc.TTL = cfg.BusScheduleTTL
	svc.Retry = cfg.BusScheduleRetry
	svc.Metrics = a.Metrics
	svc.Logger = component(a.Logger, "busschedule")
	return svc, nil
}

// newDirections builds the directions provider and its driving cache.
func (a *App) newDirections(ctx context.Context) (ports.DirectionsProvider, error) {
	cfg := a.Config

	var base ports.DirectionsProvider
	switch cfg.DirectionsProvider {
	case "mock":
		base = directions.NewDemoProvider(cfg.TimeZone)
	default:
		g, err := directions.NewGoogleRoutesProvider(cfg.GoogleMapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		base = g
	}

	return directions.NewCachedProvider(base, a.newDrivingCache(ctx)), nil
}

func (a *App) newDrivingCache(ctx context.Context) ports.DrivingCache {
	cfg := a.Config

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			rc := cache.NewRedisDrivingCache(client, cache.DefaultDrivingTTL, a.Logger)
			a.closers = append(a.closers, rc.Close)
			return rc
		}
		a.Logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory driving cache")
	}

	return cache.NewMemoryDrivingCache(cache.DefaultMemoryCacheSize, cache.DefaultDrivingTTL)
}

func component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
