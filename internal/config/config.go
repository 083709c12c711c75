package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend for the persisted bus schedule.
type DBBackend string

const (
	DBNone     DBBackend = "none"
	DBSQLite   DBBackend = "sqlite"
	DBPostgres DBBackend = "postgres"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DirectionsProvider string // "google" or "mock"
	GoogleMapsAPIKey   string

	RoutesPath    string // optional YAML override of the embedded routes
	HomeAddress   string
	OfficeAddress string
	TimeZone      *time.Location

	DBBackend   DBBackend
	DBPath      string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL           string
	NATSSubjectPrefix string

	BusScheduleURL   string
	BusScheduleID    string
	BusScheduleTTL   time.Duration
	BusScheduleRetry time.Duration

	ProviderTimeout   time.Duration
	BatchTimeout      time.Duration
	MaxConcurrency    int
	PrefetchTolerance time.Duration

	MetricsEnabled bool
}

// Load reads .env (if present) and the environment, applies defaults and validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      Get("ENV", "development"),
		Port:     Get("PORT", "8080"),
		LogLevel: Get("LOG_LEVEL", "info"),

		DirectionsProvider: strings.ToLower(Get("DIRECTIONS_PROVIDER", "google")),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),

		RoutesPath:    os.Getenv("ROUTES_PATH"),
		HomeAddress:   os.Getenv("HOME_ADDRESS"),
		OfficeAddress: os.Getenv("OFFICE_ADDRESS"),

		DBBackend:   DBBackend(strings.ToLower(Get("DB_BACKEND", string(DBSQLite)))),
		DBPath:      Get("DB_PATH", "data/commute.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: Get("NATS_SUBJECT_PREFIX", "commute.routes"),

		BusScheduleURL: os.Getenv("BUS_SCHEDULE_URL"),
		BusScheduleID:  Get("BUS_SCHEDULE_ID", "default"),
	}

	var err error
	if cfg.RedisDB, err = GetInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency, err = GetInt("COMMUTE_MAX_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	if cfg.BusScheduleTTL, err = GetDuration("BUS_SCHEDULE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BusScheduleRetry, err = GetDuration("BUS_SCHEDULE_RETRY", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = GetDuration("COMMUTE_PROVIDER_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.BatchTimeout, err = GetDuration("COMMUTE_BATCH_TIMEOUT", 25*time.Second); err != nil {
		return nil, err
	}
	if cfg.PrefetchTolerance, err = GetDuration("COMMUTE_PREFETCH_TOLERANCE", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = GetBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	tzName := Get("TZ_NAME", "America/New_York")
	if cfg.TimeZone, err = time.LoadLocation(tzName); err != nil {
		return nil, fmt.Errorf("config: invalid TZ_NAME %q: %w", tzName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.DirectionsProvider {
	case "google":
		if strings.TrimSpace(c.GoogleMapsAPIKey) == "" {
			errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required when DIRECTIONS_PROVIDER=google"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("DIRECTIONS_PROVIDER must be google or mock, got %q", c.DirectionsProvider))
	}

	switch c.DBBackend {
	case DBNone, DBSQLite:
	case DBPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_BACKEND must be none, sqlite or postgres, got %q", c.DBBackend))
	}

	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("COMMUTE_MAX_CONCURRENCY must be >= 1, got %d", c.MaxConcurrency))
	}
	if c.ProviderTimeout <= 0 || c.BatchTimeout <= 0 {
		errs = append(errs, errors.New("COMMUTE_PROVIDER_TIMEOUT and COMMUTE_BATCH_TIMEOUT must be positive"))
	}
	if c.ProviderTimeout > c.BatchTimeout {
		errs = append(errs, fmt.Errorf("COMMUTE_PROVIDER_TIMEOUT (%s) must not exceed COMMUTE_BATCH_TIMEOUT (%s)", c.ProviderTimeout, c.BatchTimeout))
	}
	if c.BusScheduleTTL <= 0 {
		errs = append(errs, errors.New("BUS_SCHEDULE_TTL must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %q", key, v)
	}
	return n, nil
}

// GetDuration accepts Go duration strings ("90s", "15m") or bare seconds.
func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %q", key, v)
	}
	return d, nil
}

func GetBool(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback, nil
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("config: invalid %s: %q", key, v)
}
