// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/store"
)

// Exporter writes the translation review export: every translatable key of a
// train's files with its English value and, when present, its translation.
type Exporter struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewExporter creates an Exporter reading through q.
func NewExporter(q *store.Queries, logger *slog.Logger) *Exporter {
	return &Exporter{queries: q, logger: logger}
}

// Export writes one CSV record per (file, key) pair to w. Untranslated keys
// appear with an empty translated column so reviewers see the gaps; files are
// enumerated through the pseudo-language selection so a file with no
// translations at all still shows up.
func (e *Exporter) Export(ctx context.Context, w io.Writer, trainID string, lang model.Language) error {
	all := model.Language{ISO: model.PseudoISO}
	files, err := e.queries.FilesForLanguagePack(ctx, trainID, all)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "key", "english", "translated"}); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, file := range files {
		rows, err := e.queries.ExportRows(ctx, file.ID, lang.ID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write([]string{file.Name, r.Key, r.English, r.Translated}); err != nil {
				return fmt.Errorf("writing export row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}
	e.logger.Info("export complete", "train", trainID, "language", lang.ISO, "files", len(files))
	return nil
}
