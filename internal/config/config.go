package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/Simplici0/oslony/internal/logging"
)

const (
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Port    string `env:"PORT" envDefault:"8000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	Backend string `env:"CATALOG_BACKEND" envDefault:"xlsx"`

	CatalogDir      string `env:"CATALOG_DIR" envDefault:"cenniki"`
	PleatedWorkbook string `env:"PLEATED_WORKBOOK" envDefault:"cenniki/cenniki_plis.xlsx"`
	DBPath          string `env:"DB_PATH" envDefault:"./catalog.db"`

	CacheEnabled bool          `env:"CATALOG_CACHE" envDefault:"true"`
	ReadTimeout  time.Duration `env:"CATALOG_READ_TIMEOUT" envDefault:"5s"`
	OpenRetry    time.Duration `env:"CATALOG_OPEN_RETRY" envDefault:"2s"`

	StaticDir   string   `env:"STATIC_DIR" envDefault:"static"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// Load reads the environment and returns a validated Config.
func Load() (Config, error) {
	// Best-effort: load local dev environment variables.
	// Production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendXLSX, BackendSQLite:
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.Backend)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("CATALOG_READ_TIMEOUT must be positive, got %s", c.ReadTimeout)
	}
	if c.OpenRetry < 0 {
		return fmt.Errorf("CATALOG_OPEN_RETRY must not be negative, got %s", c.OpenRetry)
	}
	return nil
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// Logging returns the logger configuration. Development defaults to debug
// output on the console, everything else to info as JSON.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if c.IsDev() {
		cfg.Level = "debug"
		cfg.Development = true
	} else {
		cfg.Format = "json"
	}
	if c.LogLevel != "" {
		cfg.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Format = c.LogFormat
	}
	return cfg
}

// PleatedWorkbookName is the file name of the combined-width workbook, used
// to keep it out of the rectangular category listing.
func (c Config) PleatedWorkbookName() string {
	return filepath.Base(c.PleatedWorkbook)
}
