// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package build generates language-pack update sites: NLS fragment jars,
// feature jars, distribution zips, the per-train site.xml descriptor and
// the download index pages.
//
// A run is best-effort. A failing fragment, feature or train is logged and
// counted but never stops the remaining work; the run as a whole reports an
// error when any unit failed so operators notice partial output.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/babelgen/internal/cache"
	"github.com/olegiv/babelgen/internal/config"
	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/pack"
	"github.com/olegiv/babelgen/internal/store"
)

// Options selects what one run builds.
type Options struct {
	// Trains are the release lines to build sites for.
	Trains []model.ReleaseTrain

	// BuildID tags every log line and index page of this run. A fresh id
	// is generated when empty.
	BuildID string

	// Parallelism is the number of concurrent fragment workers per
	// language. Values below 1 fall back to sequential generation.
	Parallelism int
}

// Builder orchestrates a full pipeline run.
type Builder struct {
	cfg      *config.Config
	queries  *store.Queries
	arch     *pack.Archiver
	progress *ProgressAggregator
	logger   *slog.Logger
}

// NewBuilder wires a Builder to its database, progress cache and logger.
func NewBuilder(cfg *config.Config, q *store.Queries, c cache.Cache, logger *slog.Logger) *Builder {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	return &Builder{
		cfg:      cfg,
		queries:  q,
		arch:     pack.New(),
		progress: NewProgressAggregator(q, c, ttl, logger),
		logger:   logger,
	}
}

// Run builds every requested train. Each train gets the same generation
// timestamp so all artifacts of the run share one version suffix. It returns
// an error when any unit of work failed, after all units were attempted.
func (b *Builder) Run(ctx context.Context, opts Options) error {
	if opts.BuildID == "" {
		opts.BuildID = uuid.NewString()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}

	now := time.Now()
	logger := b.logger.With("build_id", opts.BuildID)
	logger.Info("starting build", "trains", len(opts.Trains), "parallelism", opts.Parallelism)

	var failed int
	for _, train := range opts.Trains {
		failed += b.buildTrain(ctx, train.Stamp(now), opts, logger)
	}
	if failed > 0 {
		return fmt.Errorf("build %s finished with %d failed units", opts.BuildID, failed)
	}
	logger.Info("build complete")
	return nil
}

func (b *Builder) buildTrain(ctx context.Context, train model.ReleaseTrain, opts Options, logger *slog.Logger) (failed int) {
	logger = logger.With("train", train.ID)
	logger.Info("building train", "version", train.VersionSuffix())

	siteDir := filepath.Join(b.cfg.OutputDir(), train.ID, "eclipse")
	pluginsDir := filepath.Join(siteDir, "plugins")
	featuresDir := filepath.Join(siteDir, "features")
	for _, dir := range []string{pluginsDir, featuresDir, b.cfg.LanguagePacksDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("creating output directory failed", "dir", dir, "error", err)
			return 1
		}
	}

	langs, err := b.queries.Languages(ctx)
	if err != nil {
		logger.Error("loading languages failed", "error", err)
		return 1
	}

	site := NewSiteAssembler(b.cfg.MirrorsURL)
	links := NewLinksIndex(train, opts.BuildID)
	for _, lang := range langs {
		failed += b.buildLanguage(ctx, train, lang, pluginsDir, featuresDir, site, links, opts, logger)
	}

	if err := site.WriteFile(filepath.Join(siteDir, "site.xml")); err != nil {
		logger.Error("writing site.xml failed", "error", err)
		failed++
	}
	if err := links.WriteFile(filepath.Join(b.cfg.LanguagePacksDir(), train.ID+".html")); err != nil {
		logger.Error("writing links index failed", "error", err)
		failed++
	}
	return failed
}

func (b *Builder) buildLanguage(ctx context.Context, train model.ReleaseTrain, lang model.Language,
	pluginsDir, featuresDir string, site *SiteAssembler, links *LinksIndex, opts Options, logger *slog.Logger) int {

	logger = logger.With("language", lang.ISO)

	files, err := b.queries.FilesForLanguagePack(ctx, train.ID, lang)
	if err != nil {
		logger.Error("selecting files failed", "error", err)
		return 1
	}
	frags := GroupFragments(files, lang, train, logger)
	if len(frags) == 0 {
		logger.Info("no content for language")
		return 0
	}
	logger.Info("generating fragments", "fragments", len(frags), "files", len(files))

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for _, frag := range frags {
		g.Go(func() error {
			if err := b.buildFragment(gctx, frag, pluginsDir); err != nil {
				logger.Warn("fragment failed", "fragment", frag.ID(), "error", err)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	feats := GroupFeatures(frags)
	category := CategoryName(lang)
	site.AddCategory(category)
	links.AddLanguage(lang.DisplayName())

	for _, feat := range feats {
		pct, err := b.buildFeature(ctx, feat, pluginsDir, featuresDir)
		if err != nil {
			logger.Warn("feature failed", "feature", feat.ID(), "error", err)
			failed.Add(1)
			continue
		}
		site.AddFeature(feat.ArchiveName(), feat.ID(), train.VersionSuffix(), category)
		links.AddPack(feat.PackName(), pct)
	}
	return int(failed.Load())
}

// buildFragment stages and jars one fragment. A failed fragment leaves its
// size at zero; the owning feature still ships and its descriptor records
// zero-size entries for the missing jar.
func (b *Builder) buildFragment(ctx context.Context, frag *Fragment, pluginsDir string) error {
	staging := filepath.Join(b.cfg.TmpDir(), "fragments", frag.ID())
	defer func() { _ = os.RemoveAll(staging) }()

	if err := frag.Generate(ctx, b.queries, staging); err != nil {
		return err
	}
	size, err := b.arch.Jar(staging, filepath.Join(pluginsDir, frag.ArchiveName()))
	if err != nil {
		return err
	}
	frag.Size = size
	return nil
}

// buildFeature stages one feature, assembles its distribution zip from the
// already-packaged fragment jars, then jars the feature itself. The loose
// staging trees are removed afterwards.
func (b *Builder) buildFeature(ctx context.Context, feat *Feature, pluginsDir, featuresDir string) (pct float64, err error) {
	staging := filepath.Join(b.cfg.TmpDir(), "features", feat.DirName())
	packRoot := filepath.Join(b.cfg.TmpDir(), "packs", feat.ID())
	defer func() {
		_ = os.RemoveAll(staging)
		_ = os.RemoveAll(packRoot)
	}()

	pct = feat.PctComplete(ctx, b.progress)
	if err := feat.WriteContent(ctx, b.queries, staging, pct); err != nil {
		return 0, err
	}

	if err := b.assemblePack(feat, staging, pluginsDir, packRoot); err != nil {
		return 0, err
	}
	if _, err := b.arch.Jar(staging, filepath.Join(featuresDir, feat.ArchiveName())); err != nil {
		return 0, err
	}
	return pct, nil
}

// assemblePack lays out the standalone language-pack tree under packRoot and
// zips it into the language-packs directory. Jars of failed fragments are
// simply absent from the pack.
func (b *Builder) assemblePack(feat *Feature, featureStaging, pluginsDir, packRoot string) error {
	if err := pack.CleanDir(packRoot); err != nil {
		return err
	}
	featDir := filepath.Join(packRoot, "eclipse", "features", feat.DirName())
	if err := copyTree(featureStaging, featDir); err != nil {
		return err
	}
	packPlugins := filepath.Join(packRoot, "eclipse", "plugins")
	if err := os.MkdirAll(packPlugins, 0o755); err != nil {
		return fmt.Errorf("creating pack plugins dir: %w", err)
	}
	for _, frag := range feat.Fragments {
		src := filepath.Join(pluginsDir, frag.ArchiveName())
		if pack.FileSize(src) == 0 {
			continue
		}
		if err := copyFile(src, filepath.Join(packPlugins, frag.ArchiveName())); err != nil {
			return err
		}
	}

	dest := filepath.Join(b.cfg.LanguagePacksDir(), feat.PackName())
	if _, err := b.arch.Zip(packRoot, "eclipse", dest); err != nil {
		return err
	}
	return nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	return nil
}
