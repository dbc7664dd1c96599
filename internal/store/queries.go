// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/props"
)

// Queries exposes the typed, parameterized queries the pipeline reads
// through. All selection rules (active flags, most-recent-active
// translation wins, non_translatable exclusion) live here.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance backed by db.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// Languages returns the active translation languages, the pseudo-language
// first, then alphabetically by name. The English row is rewritten into the
// synthetic pseudo-language.
func (q *Queries) Languages(ctx context.Context) ([]model.Language, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT language_id, iso_code, locale, name
		FROM languages
		WHERE is_active = 1
		ORDER BY CASE WHEN language_id = 1 THEN 0 ELSE 1 END, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying languages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var langs []model.Language
	for rows.Next() {
		l := model.Language{IsActive: true}
		if err := rows.Scan(&l.ID, &l.ISO, &l.Locale, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning language: %w", err)
		}
		langs = append(langs, l.Pseudoize())
	}
	return langs, rows.Err()
}

// FilesForLanguagePack returns every active file that has at least one
// packageable string for the given language, restricted to the projects in
// the given train. For the pseudo-language any string qualifies; for a real
// language the file must have at least one active translation.
func (q *Queries) FilesForLanguagePack(ctx context.Context, trainID string, lang model.Language) ([]model.TranslatableFile, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if lang.IsPseudo() {
		rows, err = q.db.QueryContext(ctx, `
			SELECT DISTINCT f.project_id, f.version, f.file_id, f.name
			FROM files AS f
			INNER JOIN strings AS s ON f.file_id = s.file_id
			INNER JOIN release_train_projects AS v
				ON f.project_id = v.project_id AND f.version = v.version
			WHERE f.is_active = 1
			AND v.train_id = ?
			ORDER BY f.file_id`, trainID)
	} else {
		rows, err = q.db.QueryContext(ctx, `
			SELECT DISTINCT f.project_id, f.version, f.file_id, f.name
			FROM files AS f
			INNER JOIN strings AS s ON f.file_id = s.file_id
			INNER JOIN translations AS t
				ON s.string_id = t.string_id AND t.is_active = 1
			INNER JOIN release_train_projects AS v
				ON f.project_id = v.project_id AND f.version = v.version
			WHERE t.language_id = ?
			AND f.is_active = 1
			AND v.train_id = ?
			ORDER BY f.file_id`, lang.ID, trainID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying files for train %s: %w", trainID, err)
	}
	defer func() { _ = rows.Close() }()

	var files []model.TranslatableFile
	for rows.Next() {
		var f model.TranslatableFile
		if err := rows.Scan(&f.ProjectID, &f.Version, &f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// MessageString is one active, translatable message key of a file with its
// canonical English value.
type MessageString struct {
	ID    int64
	Key   string
	Value string
}

// SourceStrings returns a file's active, translatable strings with their
// English values, in key declaration order.
func (q *Queries) SourceStrings(ctx context.Context, fileID int64) ([]MessageString, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT string_id, name, value
		FROM strings
		WHERE file_id = ? AND is_active = 1 AND non_translatable = 0
		ORDER BY string_id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying strings for file %d: %w", fileID, err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []MessageString
	for rows.Next() {
		var m MessageString
		if err := rows.Scan(&m.ID, &m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning string: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// TranslatedStrings returns a file's keys with their most recently active
// non-empty translation in the given language. Untranslated keys are absent.
func (q *Queries) TranslatedStrings(ctx context.Context, fileID, languageID int64) ([]props.Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT s.string_id, s.name, t.value
		FROM strings AS s
		INNER JOIN translations AS t ON s.string_id = t.string_id
		WHERE s.file_id = ?
		AND s.is_active = 1
		AND s.non_translatable = 0
		AND t.language_id = ?
		AND t.is_active = 1
		ORDER BY s.string_id, t.version DESC, t.translation_id DESC`, fileID, languageID)
	if err != nil {
		return nil, fmt.Errorf("querying translations for file %d: %w", fileID, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		entries []props.Entry
		lastID  int64 = -1
	)
	for rows.Next() {
		var (
			id         int64
			key, value string
		)
		if err := rows.Scan(&id, &key, &value); err != nil {
			return nil, fmt.Errorf("scanning translation: %w", err)
		}
		// Most recent active wins; later rows for the same string are
		// superseded versions. The winner is picked before the blank
		// check so a blanked-out latest translation omits the key
		// instead of resurrecting a superseded value.
		if id == lastID {
			continue
		}
		lastID = id
		if value == "" {
			continue
		}
		entries = append(entries, props.Entry{Key: key, Value: value})
	}
	return entries, rows.Err()
}

var formTagRe = regexp.MustCompile(`(?i)^<form>`)

// PseudoValue renders a string's English value for the pseudo-language,
// injecting the "<projectId><stringId>:" provenance marker. Values opening
// with a <form> tag get the marker as a paragraph right after the tag so
// the form markup stays well-formed.
func PseudoValue(projectID string, stringID int64, value string) string {
	prov := fmt.Sprintf("%s%d", projectID, stringID)
	if loc := formTagRe.FindString(value); loc != "" {
		return loc + "<p>" + prov + ":</p>" + value[len(loc):]
	}
	return prov + ":" + value
}

// StringsForFile returns the ordered key-to-rendered-value entries for one
// resource file in the given language: provenance-prefixed English values
// for the pseudo-language, the active translations otherwise.
func (q *Queries) StringsForFile(ctx context.Context, fileID int64, projectID string, lang model.Language) ([]props.Entry, error) {
	if lang.IsPseudo() {
		msgs, err := q.SourceStrings(ctx, fileID)
		if err != nil {
			return nil, err
		}
		entries := make([]props.Entry, 0, len(msgs))
		for _, m := range msgs {
			entries = append(entries, props.Entry{Key: m.Key, Value: PseudoValue(projectID, m.ID, m.Value)})
		}
		return entries, nil
	}
	return q.TranslatedStrings(ctx, fileID, lang.ID)
}

// ProjectPctComplete looks up the precomputed completion percentage for a
// (project, version, language). The second return value reports whether a
// progress row exists; a missing row is not an error.
func (q *Queries) ProjectPctComplete(ctx context.Context, projectID, version string, languageID int64) (float64, bool, error) {
	var pct float64
	err := q.db.QueryRowContext(ctx, `
		SELECT pct_complete
		FROM project_progress
		WHERE project_id = ? AND version = ? AND language_id = ?`,
		projectID, version, languageID).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying progress for %s %s: %w", projectID, version, err)
	}
	return pct, true, nil
}

// ExportRow pairs a message key with its English value and, when present,
// its active translation.
type ExportRow struct {
	Key        string
	English    string
	Translated string
}

// ExportRows returns every translatable key of a file with its English and
// translated values, for the CSV review export. Untranslated keys appear
// with an empty Translated column. The same most-recent-active-wins rule as
// TranslatedStrings applies, so each key exports exactly once.
func (q *Queries) ExportRows(ctx context.Context, fileID, languageID int64) ([]ExportRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT s.string_id, s.name, s.value, COALESCE(t.value, '')
		FROM strings AS s
		LEFT JOIN translations AS t
			ON t.string_id = s.string_id AND t.language_id = ? AND t.is_active = 1
		WHERE s.file_id = ? AND s.is_active = 1 AND s.non_translatable = 0
		ORDER BY s.string_id, t.version DESC, t.translation_id DESC`, languageID, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying export rows for file %d: %w", fileID, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		out    []ExportRow
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id int64
			r  ExportRow
		)
		if err := rows.Scan(&id, &r.Key, &r.English, &r.Translated); err != nil {
			return nil, fmt.Errorf("scanning export row: %w", err)
		}
		// Superseded translation versions sort after the winner.
		if id == lastID {
			continue
		}
		lastID = id
		out = append(out, r)
	}
	return out, rows.Err()
}
