// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/babelgen/internal/build"
	"github.com/olegiv/babelgen/internal/cache"
	"github.com/olegiv/babelgen/internal/config"
	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/scheduler"
	"github.com/olegiv/babelgen/internal/serve"
	"github.com/olegiv/babelgen/internal/store"
	"github.com/olegiv/babelgen/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = ""
	appBuildTime = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the shared dependencies commands build on demand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
}

func newApp() (*app, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: newLogger(cfg.LogLevel)}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openDB connects to the translation database. The bundled schema is only
// applied to SQLite; the portal owns the MySQL schema.
func (a *app) openDB() error {
	dsn := a.cfg.DBPath
	if a.cfg.DBDriver == config.DriverMySQL {
		dsn = a.cfg.DBDSN
	}
	db, err := store.Open(a.cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	if a.cfg.DBDriver == config.DriverSQLite {
		if err := store.Migrate(db); err != nil {
			_ = db.Close()
			return err
		}
	}
	a.db = db
	a.queries = store.New(db)
	return nil
}

// openCache selects the progress cache: Redis when configured, otherwise an
// in-process cache scoped to this run.
func (a *app) openCache() {
	ttl := time.Duration(a.cfg.CacheTTL) * time.Second
	if a.cfg.UseRedisCache() {
		c, err := cache.NewRedisCache(a.cfg.RedisURL, a.cfg.CachePrefix, ttl)
		if err == nil {
			a.logger.Info("using redis progress cache")
			a.cache = c
			return
		}
		a.logger.Warn("redis unavailable, falling back to memory cache", "error", err)
	}
	a.cache = cache.NewMemoryCache(ttl)
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// selectTrains resolves the requested train ids against the known release
// lines. An empty selection means all of them.
func selectTrains(ids []string) ([]model.ReleaseTrain, error) {
	known := model.DefaultTrains()
	if len(ids) == 0 {
		return known, nil
	}
	byID := make(map[string]model.ReleaseTrain, len(known))
	for _, t := range known {
		byID[t.ID] = t
	}
	var out []model.ReleaseTrain
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown release train %q", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "babelgen",
		Short:         "Generates Eclipse language-pack update sites from community translations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd(), newExportCmd(), newServeCmd(), newDaemonCmd(), newSeedCmd(), newVersionCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	var (
		trains      []string
		buildID     string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build update sites and language packs for the selected release trains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer a.close()
			a.openCache()

			selected, err := selectTrains(trains)
			if err != nil {
				return err
			}
			if parallelism == 0 {
				parallelism = a.cfg.Parallelism
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			builder := build.NewBuilder(a.cfg, a.queries, a.cache, a.logger)
			return builder.Run(ctx, build.Options{
				Trains:      selected,
				BuildID:     buildID,
				Parallelism: parallelism,
			})
		},
	}
	cmd.Flags().StringSliceVarP(&trains, "train", "t", nil, "release train to build (repeatable, default all)")
	cmd.Flags().StringVarP(&buildID, "build-id", "b", "", "identifier for this run (default a fresh UUID)")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 0, "fragment workers per language (default from config)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		train  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <language-iso>",
		Short: "Export a train's keys with their translations as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer a.close()

			langs, err := a.queries.Languages(cmd.Context())
			if err != nil {
				return err
			}
			var lang model.Language
			for _, l := range langs {
				if l.ISO == args[0] {
					lang = l
					break
				}
			}
			if lang.ISO == "" {
				return fmt.Errorf("unknown language %q", args[0])
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			return build.NewExporter(a.queries, a.logger).Export(cmd.Context(), out, train, lang)
		},
	}
	cmd.Flags().StringVarP(&train, "train", "t", "galileo", "release train to export")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated sites and packs for local preview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			srv := serve.New(a.cfg, a.logger)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduled rebuild loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer a.close()
			a.openCache()

			builder := build.NewBuilder(a.cfg, a.queries, a.cache, a.logger)
			sched := scheduler.New(a.logger)
			err = sched.Schedule(a.cfg.BuildSchedule, "site-rebuild", func(ctx context.Context) error {
				return builder.Run(ctx, build.Options{
					Trains:      model.DefaultTrains(),
					Parallelism: a.cfg.Parallelism,
				})
			})
			if err != nil {
				return fmt.Errorf("invalid build schedule %q: %w", a.cfg.BuildSchedule, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched.Start()
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate a fresh SQLite database with demo data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if a.cfg.DBDriver != config.DriverSQLite {
				return fmt.Errorf("seed only supports the sqlite driver")
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer a.close()

			if err := a.queries.SeedDemo(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("demo data seeded", "db", a.cfg.DBPath)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
		},
	}
}
