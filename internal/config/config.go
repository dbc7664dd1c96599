// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Database drivers supported by the pipeline.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Deployment contexts. Each context gets its own working subtree so a
// staging rebuild can never clobber live artifacts.
var validContexts = map[string]bool{"live": true, "staging": true, "dev": true}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver string `env:"BABELGEN_DB_DRIVER" envDefault:"sqlite"` // sqlite (dev/tests) or mysql (portal DB)
	DBPath   string `env:"BABELGEN_DB_PATH" envDefault:"./data/babelgen.db"`
	DBDSN    string `env:"BABELGEN_DB_DSN"` // MySQL DSN, required when DBDriver is mysql

	WorkDir string `env:"BABELGEN_WORK_DIR" envDefault:"./work"`
	Context string `env:"BABELGEN_CONTEXT" envDefault:"dev"` // live, staging, dev

	MirrorsURL string `env:"BABELGEN_MIRRORS_URL" envDefault:"http://babel.eclipse.org/mirrors.php"`
	LogLevel   string `env:"BABELGEN_LOG_LEVEL" envDefault:"info"`

	// Progress cache configuration
	RedisURL    string `env:"BABELGEN_REDIS_URL"`                       // optional Redis URL for a cache shared with the portal
	CachePrefix string `env:"BABELGEN_CACHE_PREFIX" envDefault:"babelgen:"`
	CacheTTL    int    `env:"BABELGEN_CACHE_TTL" envDefault:"3600"`     // seconds

	// serve command
	ServeAddr string `env:"BABELGEN_SERVE_ADDR" envDefault:"localhost:8081"`

	// daemon command
	BuildSchedule string `env:"BABELGEN_BUILD_SCHEDULE" envDefault:"0 3 * * 6"` // weekly rebuild

	// Fragment generation workers per train. 1 keeps the historical
	// strictly sequential behavior.
	Parallelism int `env:"BABELGEN_PARALLELISM" envDefault:"1"`
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// ContextDir is the per-context working subtree.
func (c Config) ContextDir() string {
	return filepath.Join(c.WorkDir, c.Context)
}

// TmpDir is the staging area wiped before each fragment/feature is built.
func (c Config) TmpDir() string {
	return filepath.Join(c.ContextDir(), "tmp")
}

// OutputDir holds one update-site tree per release train.
func (c Config) OutputDir() string {
	return filepath.Join(c.ContextDir(), "output")
}

// LanguagePacksDir holds the distribution zips and the links index pages.
func (c Config) LanguagePacksDir() string {
	return filepath.Join(c.ContextDir(), "babel_language_packs")
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverMySQL:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("BABELGEN_DB_DSN is required when BABELGEN_DB_DRIVER=mysql")
		}
	default:
		return nil, fmt.Errorf("BABELGEN_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, cfg.DBDriver)
	}

	if !validContexts[cfg.Context] {
		return nil, fmt.Errorf("BABELGEN_CONTEXT must be live, staging or dev, got %q", cfg.Context)
	}

	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("BABELGEN_PARALLELISM must be at least 1, got %d", cfg.Parallelism)
	}

	return cfg, nil
}
