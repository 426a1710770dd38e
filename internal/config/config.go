// Package config loads the daemon and cli configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/internal/services"
	"cardmarket-monitor/pkg/configutil"

	"github.com/joho/godotenv"
)

const DefaultPath = "config.json5"

const (
	EnvUsername = "CARDMARKET_USERNAME"
	EnvPassword = "CARDMARKET_PASSWORD"
	EnvGame     = "CARDMARKET_GAME"
	EnvDatabase = "CARDMARKET_DATABASE"
)

const (
	DefaultScanIntervalSeconds     = 3600
	MinScanIntervalSeconds         = 300
	MaxScanIntervalSeconds         = 86400
	DefaultRequestTimeoutSeconds   = 30
	DefaultOperationTimeoutSeconds = 300
	DefaultRequestsPerSecond       = 2
	DefaultDatabase                = ".dev/cardmarket.db"
	DefaultListen                  = "127.0.0.1:8000"
	DefaultSearchCacheTTLSeconds   = 900
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Game     string `json:"game"`
	BaseURL  string `json:"base_url"`

	ScanIntervalSeconds     int     `json:"scan_interval_seconds"`
	RequestTimeoutSeconds   int     `json:"request_timeout_seconds"`
	OperationTimeoutSeconds int     `json:"operation_timeout_seconds"`
	RequestsPerSecond       float64 `json:"requests_per_second"`

	// Database is a sqlite file path or a libsql:// url.
	Database string `json:"database"`
	Listen   string `json:"listen"`
	// AllowedOrigins enables CORS on the http api.
	AllowedOrigins        []string `json:"allowed_origins"`
	SearchCacheTTLSeconds int      `json:"search_cache_ttl_seconds"`
	// Timezone is the IANA zone the scheduler runs in, empty is local.
	Timezone string `json:"timezone"`

	// TrackedCards are added to the tracking store on start, cards that are
	// already tracked are left alone.
	TrackedCards []cardmarket.TrackedCardSpec `json:"tracked_cards"`
}

// Load is Read followed by Validate.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Read reads path (and its .local override), the optional .env file in the
// working directory, then the CARDMARKET_* environment, and fills in defaults.
// A missing config file is not an error.
func Read(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)
	return cfg.WithDefaults(), nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvUsername, &c.Username},
		{EnvPassword, &c.Password},
		{EnvGame, &c.Game},
		{EnvDatabase, &c.Database},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

func (c Config) WithDefaults() Config {
	if c.ScanIntervalSeconds == 0 {
		c.ScanIntervalSeconds = DefaultScanIntervalSeconds
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if c.OperationTimeoutSeconds == 0 {
		c.OperationTimeoutSeconds = DefaultOperationTimeoutSeconds
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.SearchCacheTTLSeconds == 0 {
		c.SearchCacheTTLSeconds = DefaultSearchCacheTTLSeconds
	}
	if c.Game == "" {
		c.Game = string(cardmarket.DefaultGame)
	}
	if c.BaseURL == "" {
		c.BaseURL = cardmarket.DefaultBaseURL
	}
	return c
}

// Validate names the first offending field. An unknown game is not an error,
// see GameOrDefault.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Username) == "":
		return fmt.Errorf("username is required (or set %s)", EnvUsername)
	case c.Password == "":
		return fmt.Errorf("password is required (or set %s)", EnvPassword)
	case c.ScanIntervalSeconds < MinScanIntervalSeconds || c.ScanIntervalSeconds > MaxScanIntervalSeconds:
		return fmt.Errorf(
			"scan_interval_seconds must be within [%d, %d], got %d",
			MinScanIntervalSeconds, MaxScanIntervalSeconds, c.ScanIntervalSeconds,
		)
	case c.RequestTimeoutSeconds < 0:
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	case c.OperationTimeoutSeconds < 0:
		return fmt.Errorf("operation_timeout_seconds must be positive, got %d", c.OperationTimeoutSeconds)
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond)
	case c.SearchCacheTTLSeconds < 0:
		return fmt.Errorf("search_cache_ttl_seconds must be positive, got %d", c.SearchCacheTTLSeconds)
	}
	for i, spec := range c.TrackedCards {
		if strings.TrimSpace(spec.URL) == "" {
			return fmt.Errorf("tracked_cards[%d].url is required", i)
		}
		if err := spec.CardFilters.Validate(); err != nil {
			return fmt.Errorf("tracked_cards[%d]: %w", i, err)
		}
	}
	return nil
}

// GameOrDefault resolves the configured game, ok is false when it is unknown
// and the default game is used instead.
func (c Config) GameOrDefault() (game cardmarket.Game, ok bool) {
	return cardmarket.ParseGame(c.Game)
}

func (c Config) ScraperOptions() cardmarket.Options {
	game, _ := c.GameOrDefault()
	return cardmarket.Options{
		Credentials: cardmarket.Credentials{
			Username: strings.TrimSpace(c.Username),
			Password: c.Password,
			Game:     game,
		},
		Client: cardmarket.ClientOptions{
			BaseURL:           c.BaseURL,
			Timeout:           seconds(c.RequestTimeoutSeconds),
			RequestsPerSecond: c.RequestsPerSecond,
		},
	}
}

func (c Config) CoordinatorOptions() coordinator.Options {
	return coordinator.Options{
		ScanInterval:     seconds(c.ScanIntervalSeconds),
		OperationTimeout: seconds(c.OperationTimeoutSeconds),
	}
}

func (c Config) ServiceOptions() services.Options {
	return services.Options{
		BaseURL:   c.BaseURL,
		SearchTTL: seconds(c.SearchCacheTTLSeconds),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
