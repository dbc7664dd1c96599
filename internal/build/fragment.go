// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/nlspath"
	"github.com/olegiv/babelgen/internal/pack"
	"github.com/olegiv/babelgen/internal/props"
	"github.com/olegiv/babelgen/internal/store"
)

// FragmentFile is one resource file assigned to a fragment, with its path
// normalized relative to the host plugin root.
type FragmentFile struct {
	model.TranslatableFile
	Resource string
}

// Fragment is an NLS fragment for one host plugin in one language. It
// packages the localized resource files of every selected file attributed
// to that plugin.
type Fragment struct {
	PluginID string
	Language model.Language
	Train    model.ReleaseTrain
	Files    []FragmentFile

	// Size is the byte size of the produced jar, recorded after packaging
	// and embedded in the owning feature descriptor.
	Size int64
}

// ID is the fragment's bundle symbolic name, e.g. "org.eclipse.ui.nl_fr".
func (f *Fragment) ID() string {
	return f.PluginID + ".nl_" + f.Language.ISO
}

// ArchiveName is the versioned jar filename placed under plugins/.
func (f *Fragment) ArchiveName() string {
	return f.ID() + "_" + f.Train.VersionSuffix() + ".jar"
}

// Projects returns the distinct project versions contributing files to this
// fragment, sorted for stable grouping.
func (f *Fragment) Projects() []model.ProjectRef {
	seen := make(map[model.ProjectRef]bool)
	var refs []model.ProjectRef
	for _, file := range f.Files {
		ref := model.ProjectRef{ID: file.ProjectID, Version: file.Version}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ID != refs[j].ID {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].Version < refs[j].Version
	})
	return refs
}

// GroupFragments assigns the selected files to fragments by host plugin.
// Files whose path cannot be attributed to a plugin are logged and skipped;
// a bad path never fails the language. Fragments come back sorted by plugin
// id and keep each plugin's files in selection order.
func GroupFragments(files []model.TranslatableFile, lang model.Language, train model.ReleaseTrain, logger *slog.Logger) []*Fragment {
	byPlugin := make(map[string]*Fragment)
	for _, file := range files {
		pluginID, resource, err := nlspath.Normalize(file.Name)
		if err != nil {
			logger.Warn("skipping file without plugin attribution",
				"file", file.Name, "project", file.ProjectID, "error", err)
			continue
		}
		frag := byPlugin[pluginID]
		if frag == nil {
			frag = &Fragment{PluginID: pluginID, Language: lang, Train: train}
			byPlugin[pluginID] = frag
		}
		frag.Files = append(frag.Files, FragmentFile{TranslatableFile: file, Resource: resource})
	}

	frags := make([]*Fragment, 0, len(byPlugin))
	for _, frag := range byPlugin {
		frags = append(frags, frag)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].PluginID < frags[j].PluginID })
	return frags
}

// Generate stages the fragment's content under staging: the bundle manifest,
// the legal notice and one localized resource file per selected file. The
// staging directory is wiped first.
func (f *Fragment) Generate(ctx context.Context, q *store.Queries, staging string) error {
	if err := pack.CleanDir(staging); err != nil {
		return err
	}

	metaInf := filepath.Join(staging, "META-INF")
	if err := os.MkdirAll(metaInf, 0o755); err != nil {
		return fmt.Errorf("creating META-INF for %s: %w", f.ID(), err)
	}
	if err := os.WriteFile(filepath.Join(metaInf, "MANIFEST.MF"), f.manifest(), 0o644); err != nil {
		return fmt.Errorf("writing manifest for %s: %w", f.ID(), err)
	}
	if err := writeSourceFile("about.html", staging); err != nil {
		return err
	}

	for _, file := range f.Files {
		entries, err := q.StringsForFile(ctx, file.ID, file.ProjectID, f.Language)
		if err != nil {
			return fmt.Errorf("loading strings for %s: %w", file.Name, err)
		}
		localized := nlspath.AppendLangCode(file.Resource, f.Language.ISO)
		dest, err := pack.SafeChild(staging, localized)
		if err != nil {
			return fmt.Errorf("staging %s: %w", file.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("staging %s: %w", localized, err)
		}
		if err := os.WriteFile(dest, props.Render(entries), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", localized, err)
		}
	}
	return nil
}

func (f *Fragment) manifest() []byte {
	return []byte("Manifest-Version: 1.0\n" +
		"Bundle-Name: " + f.PluginID + " " + f.Language.DisplayName() + " NLS Support\n" +
		"Bundle-SymbolicName: " + f.ID() + " ;singleton=true\n" +
		"Bundle-Version: " + f.Train.VersionSuffix() + "\n" +
		"Bundle-Vendor: Eclipse.org\n" +
		"Fragment-Host: " + f.PluginID + "\n")
}
