// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/olegiv/babelgen/internal/cache"
	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/store"
)

// pseudoPct is the fixed completion reported for the pseudo-language, whose
// packs always carry every string.
const pseudoPct = 100

// ProgressAggregator resolves completion percentages for feature labels.
// Lookups are cached so a run over many languages hits the progress table
// once per (project, version, language).
type ProgressAggregator struct {
	queries *store.Queries
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewProgressAggregator wires the aggregator to its progress source and cache.
func NewProgressAggregator(q *store.Queries, c cache.Cache, ttl time.Duration, logger *slog.Logger) *ProgressAggregator {
	return &ProgressAggregator{queries: q, cache: c, ttl: ttl, logger: logger}
}

// ProjectPct returns the completion percentage of one project version in the
// given language. Missing progress rows and lookup failures both degrade to
// 0 so a label never blocks a build.
func (a *ProgressAggregator) ProjectPct(ctx context.Context, proj model.ProjectRef, lang model.Language) float64 {
	key := "progress:" + proj.ID + ":" + proj.Version + ":" + strconv.FormatInt(lang.ID, 10)

	if raw, err := a.cache.Get(ctx, key); err == nil {
		if pct, perr := strconv.ParseFloat(string(raw), 64); perr == nil {
			return pct
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		a.logger.Debug("progress cache read failed", "key", key, "error", err)
	}

	pct, ok, err := a.queries.ProjectPctComplete(ctx, proj.ID, proj.Version, lang.ID)
	if err != nil {
		a.logger.Warn("progress lookup failed", "project", proj.ID, "version", proj.Version, "error", err)
		return 0
	}
	if !ok {
		pct = 0
	}

	value := strconv.FormatFloat(pct, 'f', -1, 64)
	if err := a.cache.Set(ctx, key, []byte(value), a.ttl); err != nil {
		a.logger.Debug("progress cache write failed", "key", key, "error", err)
	}
	return pct
}

// FeaturePct aggregates per-project percentages into one figure for a
// feature label. The pseudo-language is always complete.
func (a *ProgressAggregator) FeaturePct(ctx context.Context, projects []model.ProjectRef, lang model.Language) float64 {
	if lang.IsPseudo() {
		return pseudoPct
	}
	pcts := make([]float64, 0, len(projects))
	for _, p := range projects {
		pcts = append(pcts, a.ProjectPct(ctx, p, lang))
	}
	return RunningAverage(pcts)
}

// RunningAverage folds percentages pairwise: the running value and the next
// element are averaged at each step, so later elements weigh more than
// earlier ones. Feature labels have always been computed this way and
// rebuilds must not change historical figures.
func RunningAverage(pcts []float64) float64 {
	if len(pcts) == 0 {
		return 0
	}
	avg := pcts[0]
	for _, p := range pcts[1:] {
		avg = (avg + p) / 2
	}
	return avg
}

func formatPct(pct float64) string {
	return strconv.FormatFloat(math.Round(pct), 'f', -1, 64)
}
