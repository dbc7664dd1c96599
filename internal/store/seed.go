// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// The create helpers below are used by the seed command and by tests; the
// crawler and the portal own these tables in production.

// CreateLanguage inserts a language and returns its id.
func (q *Queries) CreateLanguage(ctx context.Context, iso, locale, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO languages (iso_code, locale, name, is_active) VALUES (?, ?, ?, 1)`,
		iso, locale, name)
	if err != nil {
		return 0, fmt.Errorf("inserting language %s: %w", iso, err)
	}
	return res.LastInsertId()
}

// CreateFile inserts a translatable file and returns its id.
func (q *Queries) CreateFile(ctx context.Context, projectID, version, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO files (project_id, version, name, is_active) VALUES (?, ?, ?, 1)`,
		projectID, version, name)
	if err != nil {
		return 0, fmt.Errorf("inserting file %s: %w", name, err)
	}
	return res.LastInsertId()
}

// CreateString inserts a message string and returns its id.
func (q *Queries) CreateString(ctx context.Context, fileID int64, key, value string, nonTranslatable bool) (int64, error) {
	nt := 0
	if nonTranslatable {
		nt = 1
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO strings (file_id, name, value, is_active, non_translatable) VALUES (?, ?, ?, 1, ?)`,
		fileID, key, value, nt)
	if err != nil {
		return 0, fmt.Errorf("inserting string %s: %w", key, err)
	}
	return res.LastInsertId()
}

// CreateTranslation inserts an active translation for a string.
func (q *Queries) CreateTranslation(ctx context.Context, stringID, languageID int64, value string, version int) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO translations (string_id, language_id, value, version, is_active) VALUES (?, ?, ?, ?, 1)`,
		stringID, languageID, value, version)
	if err != nil {
		return fmt.Errorf("inserting translation for string %d: %w", stringID, err)
	}
	return nil
}

// DeactivateTranslations marks all of a string's translations in a language
// inactive; the portal does this before activating a newer version.
func (q *Queries) DeactivateTranslations(ctx context.Context, stringID, languageID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE translations SET is_active = 0 WHERE string_id = ? AND language_id = ?`,
		stringID, languageID)
	if err != nil {
		return fmt.Errorf("deactivating translations for string %d: %w", stringID, err)
	}
	return nil
}

// AddTrainProject registers a (project, version) pair in a release train.
func (q *Queries) AddTrainProject(ctx context.Context, trainID, projectID, version string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO release_train_projects (train_id, project_id, version) VALUES (?, ?, ?)`,
		trainID, projectID, version)
	if err != nil {
		return fmt.Errorf("adding %s/%s to train %s: %w", projectID, version, trainID, err)
	}
	return nil
}

// SetProjectProgress upserts the completion percentage for a
// (project, version, language).
func (q *Queries) SetProjectProgress(ctx context.Context, projectID, version string, languageID int64, pct float64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO project_progress (project_id, version, language_id, pct_complete)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, version, language_id) DO UPDATE SET pct_complete = excluded.pct_complete`,
		projectID, version, languageID, pct)
	if err != nil {
		return fmt.Errorf("setting progress for %s %s: %w", projectID, version, err)
	}
	return nil
}

// SeedDemo populates a fresh database with a small data set sufficient to
// exercise the full pipeline without the portal: two projects on the
// galileo train, English sources, and partial French and German
// translations.
func (q *Queries) SeedDemo(ctx context.Context) error {
	en, err := q.CreateLanguage(ctx, "en", "", "English")
	if err != nil {
		return err
	}
	fr, err := q.CreateLanguage(ctx, "fr", "", "French")
	if err != nil {
		return err
	}
	de, err := q.CreateLanguage(ctx, "de", "", "German")
	if err != nil {
		return err
	}
	_ = en

	if err := q.AddTrainProject(ctx, "galileo", "eclipse", "3.5"); err != nil {
		return err
	}
	if err := q.AddTrainProject(ctx, "galileo", "birt", "2.5"); err != nil {
		return err
	}

	type seedString struct {
		key, value, frValue, deValue string
	}
	seedFiles := []struct {
		project, version, path string
		strings                []seedString
	}{
		{
			"eclipse", "3.5", "org.eclipse.ui/plugin.properties",
			[]seedString{
				{"pluginName", "Eclipse UI", "UI Eclipse", ""},
				{"openFile", "Open File...", "Ouvrir le fichier...", "Datei öffnen..."},
				{"saveAll", "Save All", "", "Alles speichern"},
			},
		},
		{
			"eclipse", "3.5", "org.eclipse.core.runtime/src/org/eclipse/core/runtime/messages.properties",
			[]seedString{
				{"ok", "OK", "OK", "OK"},
				{"cancel", "Cancel", "Annuler", "Abbrechen"},
			},
		},
		{
			"birt", "2.5", "org.eclipse.birt.chart/chart.properties",
			[]seedString{
				{"chartTitle", "Chart", "Graphique", ""},
			},
		},
	}

	for _, f := range seedFiles {
		fileID, err := q.CreateFile(ctx, f.project, f.version, f.path)
		if err != nil {
			return err
		}
		for _, s := range f.strings {
			stringID, err := q.CreateString(ctx, fileID, s.key, s.value, false)
			if err != nil {
				return err
			}
			if s.frValue != "" {
				if err := q.CreateTranslation(ctx, stringID, fr, s.frValue, 1); err != nil {
					return err
				}
			}
			if s.deValue != "" {
				if err := q.CreateTranslation(ctx, stringID, de, s.deValue, 1); err != nil {
					return err
				}
			}
		}
	}

	progress := []struct {
		project, version string
		lang             int64
		pct              float64
	}{
		{"eclipse", "3.5", fr, 80},
		{"eclipse", "3.5", de, 60},
		{"birt", "2.5", fr, 100},
	}
	for _, p := range progress {
		if err := q.SetProjectProgress(ctx, p.project, p.version, p.lang, p.pct); err != nil {
			return err
		}
	}
	return nil
}
