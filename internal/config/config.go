// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bike-dash/internal/ddl"
	"bike-dash/internal/domain"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultListenAddr      = ":8080"
	DefaultTripsDBPath     = "data/trips.sqlite"
	DefaultStoreDriver     = "sqlite"
	DefaultTripsTable      = "trips"
	DefaultTripsCSVPath    = "data/baywheels-tripdata.csv"
	DefaultArchiveIndexURL = "https://s3.amazonaws.com/baywheels-data/index.html"
	DefaultS3Region        = "us-east-1"
	DefaultHTTPTimeout     = 20 * time.Second
	DefaultLiveCacheTTL    = 30 * time.Second
	DefaultRateLimitRPS    = 20
	DefaultRateLimitBurst  = 40
	DefaultSweepSchedule   = "@every 1m"
)

// ArchiveS3Config holds credentials for an s3:// archive index. Keys are
// optional; without them requests are anonymous.
type ArchiveS3Config struct {
	Region   string
	Endpoint string
	KeyID    string
	Secret   string
}

// HasCredentials returns true when both key fields are set.
func (s *ArchiveS3Config) HasCredentials() bool {
	return s.KeyID != "" && s.Secret != ""
}

// Config holds the configuration for the dashboard server and CLI.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Trip store
	TripsDBPath      string
	TripsStoreDriver string // "sqlite" (default) or "duckdb"
	TripsTable       string
	TripsCSVPath     string

	// Historical archives
	ArchiveIndexURL string // http(s) index page or s3://bucket/prefix
	ArchiveS3       ArchiveS3Config

	// Live feed; empty GBFSIndexURL disables the live view.
	GBFSIndexURL string
	GBFSLocale   string

	HTTPTimeout  time.Duration
	LiveCacheTTL time.Duration
	RoutesLimit  int

	// ColumnsFile is the optional YAML role mapping; Columns holds the
	// roles in effect.
	ColumnsFile string
	Columns     domain.ColumnRoles

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS
	CORSAllowedOrigins []string

	CacheSweepSchedule string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LiveEnabled returns true when a GBFS feed index is configured.
func (c *Config) LiveEnabled() bool {
	return c.GBFSIndexURL != ""
}

// ArchiveIsS3 returns true when the archive index is an s3:// location.
func (c *Config) ArchiveIsS3() bool {
	return strings.HasPrefix(c.ArchiveIndexURL, "s3://")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Env:              os.Getenv("ENV"),
		TripsDBPath:      os.Getenv("TRIPS_DB_PATH"),
		TripsStoreDriver: strings.ToLower(strings.TrimSpace(os.Getenv("TRIPS_STORE_DRIVER"))),
		TripsTable:       os.Getenv("TRIPS_TABLE"),
		TripsCSVPath:     os.Getenv("TRIPS_CSV_PATH"),
		ArchiveIndexURL:  strings.TrimSpace(os.Getenv("ARCHIVE_INDEX_URL")),
		ArchiveS3: ArchiveS3Config{
			Region:   os.Getenv("ARCHIVE_S3_REGION"),
			Endpoint: os.Getenv("ARCHIVE_S3_ENDPOINT"),
			KeyID:    os.Getenv("ARCHIVE_S3_KEY_ID"),
			Secret:   os.Getenv("ARCHIVE_S3_SECRET"),
		},
		GBFSIndexURL:       strings.TrimSpace(os.Getenv("GBFS_INDEX_URL")),
		GBFSLocale:         strings.TrimSpace(os.Getenv("GBFS_LOCALE")),
		ColumnsFile:        os.Getenv("COLUMNS_FILE"),
		CacheSweepSchedule: os.Getenv("CACHE_SWEEP_SCHEDULE"),
	}

	cfg.HTTPTimeout = cfg.durationEnv("HTTP_TIMEOUT", DefaultHTTPTimeout)
	cfg.LiveCacheTTL = cfg.durationEnv("LIVE_CACHE_TTL", DefaultLiveCacheTTL)
	cfg.RoutesLimit = cfg.intEnv("ROUTES_LIMIT", domain.DefaultRouteLimit)

	// Rate limiting
	cfg.RateLimitRPS = DefaultRateLimitRPS
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		} else {
			cfg.warnf("RATE_LIMIT_RPS=%q is not a positive number, using %d", v, DefaultRateLimitRPS)
		}
	}
	cfg.RateLimitBurst = cfg.intEnv("RATE_LIMIT_BURST", DefaultRateLimitBurst)

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TripsDBPath == "" {
		cfg.TripsDBPath = DefaultTripsDBPath
	}
	if cfg.TripsStoreDriver == "" {
		cfg.TripsStoreDriver = DefaultStoreDriver
	}
	if cfg.TripsTable == "" {
		cfg.TripsTable = DefaultTripsTable
	}
	if cfg.TripsCSVPath == "" {
		cfg.TripsCSVPath = DefaultTripsCSVPath
	}
	if cfg.ArchiveIndexURL == "" {
		cfg.ArchiveIndexURL = DefaultArchiveIndexURL
	}
	if cfg.ArchiveS3.Region == "" {
		cfg.ArchiveS3.Region = DefaultS3Region
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.CacheSweepSchedule == "" {
		cfg.CacheSweepSchedule = DefaultSweepSchedule
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	roles, err := LoadColumnRoles(cfg.ColumnsFile)
	if err != nil {
		return nil, err
	}
	cfg.Columns = roles

	if !cfg.LiveEnabled() {
		cfg.Warnings = append(cfg.Warnings, "GBFS_INDEX_URL is not set; the live station view is disabled")
	}
	if cfg.ArchiveIsS3() && !cfg.ArchiveS3.HasCredentials() && (cfg.ArchiveS3.KeyID != "" || cfg.ArchiveS3.Secret != "") {
		cfg.Warnings = append(cfg.Warnings, "only one of ARCHIVE_S3_KEY_ID and ARCHIVE_S3_SECRET is set; using anonymous S3 access")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TripsStoreDriver {
	case "sqlite", "duckdb":
	default:
		return fmt.Errorf("TRIPS_STORE_DRIVER must be sqlite or duckdb, got %q", c.TripsStoreDriver)
	}
	if err := ddl.ValidateTableName(c.TripsTable); err != nil {
		return fmt.Errorf("TRIPS_TABLE: %w", err)
	}
	if err := checkURL("ARCHIVE_INDEX_URL", c.ArchiveIndexURL, "http", "https", "s3"); err != nil {
		return err
	}
	if c.GBFSIndexURL != "" {
		if err := checkURL("GBFS_INDEX_URL", c.GBFSIndexURL, "http", "https"); err != nil {
			return err
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.RoutesLimit <= 0 {
		return fmt.Errorf("ROUTES_LIMIT must be positive, got %d", c.RoutesLimit)
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be a %s URL, got %q", name, strings.Join(schemes, "/"), raw)
}

func (c *Config) durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.warnf("%s=%q is not a positive duration, using %s", key, v, def)
		return def
	}
	return d
}

func (c *Config) intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warnf("%s=%q is not a positive integer, using %d", key, v, def)
		return def
	}
	return n
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
