// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/pack"
	"github.com/olegiv/babelgen/internal/store"
)

// translateURL is the portal page a pseudo-translation index entry links to.
const translateURL = "http://babel.eclipse.org/babel/translate.php"

// featureIDPrefix roots every generated feature id.
const featureIDPrefix = "org.eclipse.babel.nls"

// Feature is an installable language-pack feature: the set of fragments in
// one language whose files come from the same set of project versions.
type Feature struct {
	Language  model.Language
	Train     model.ReleaseTrain
	Fragments []*Fragment

	projects []model.ProjectRef
}

// GroupFeatures partitions fragments into features by the project-version
// set their files belong to. Fragments drawing on exactly the same projects
// install together; results are sorted by feature id.
func GroupFeatures(frags []*Fragment) []*Feature {
	byKey := make(map[string]*Feature)
	var keys []string
	for _, frag := range frags {
		projects := frag.Projects()
		parts := make([]string, len(projects))
		for i, p := range projects {
			parts[i] = p.ID + "/" + p.Version
		}
		key := strings.Join(parts, "|")

		feat := byKey[key]
		if feat == nil {
			feat = &Feature{Language: frag.Language, Train: frag.Train, projects: projects}
			byKey[key] = feat
			keys = append(keys, key)
		}
		feat.Fragments = append(feat.Fragments, frag)
	}

	feats := make([]*Feature, 0, len(byKey))
	for _, key := range keys {
		feats = append(feats, byKey[key])
	}
	sort.Slice(feats, func(i, j int) bool { return feats[i].ID() < feats[j].ID() })
	return feats
}

// AssociatedProjects returns the project versions this feature covers,
// sorted by project id.
func (f *Feature) AssociatedProjects() []model.ProjectRef {
	return f.projects
}

// ID is the feature identifier. A feature covering a single project carries
// the project id; a feature spanning several collapses to the plain
// per-language id.
func (f *Feature) ID() string {
	if len(f.projects) == 1 {
		return featureIDPrefix + "_" + f.projects[0].ID + "_" + f.Language.ISO
	}
	return featureIDPrefix + "_" + f.Language.ISO
}

// DirName is the versioned directory the feature is staged and installed
// under, e.g. "org.eclipse.babel.nls_eclipse_fr_3.5.0.v20260831120000".
func (f *Feature) DirName() string {
	return f.ID() + "_" + f.Train.VersionSuffix()
}

// ArchiveName is the versioned jar filename placed under features/.
func (f *Feature) ArchiveName() string {
	return f.DirName() + ".jar"
}

// PackName is the distribution zip filename for this feature.
func (f *Feature) PackName() string {
	if len(f.projects) == 1 {
		return "BabelLanguagePack-" + f.projects[0].ID + "-" + f.Language.ISO + "_" + f.Train.VersionSuffix() + ".zip"
	}
	return "BabelLanguagePack-" + f.Language.ISO + "_" + f.Train.VersionSuffix() + ".zip"
}

// Label is the human-readable feature name shown by the update manager.
func (f *Feature) Label(pct float64) string {
	return f.Description() + " (" + formatPct(pct) + "%)"
}

// Description is the feature name without the completion figure.
func (f *Feature) Description() string {
	if len(f.projects) == 1 {
		return fmt.Sprintf("Babel Language Pack for %s in %s", f.projects[0].ID, f.Language.DisplayName())
	}
	return "Babel Language Pack in " + f.Language.DisplayName()
}

// PctComplete resolves the feature's completion percentage.
func (f *Feature) PctComplete(ctx context.Context, agg *ProgressAggregator) float64 {
	return agg.FeaturePct(ctx, f.projects, f.Language)
}

// RenderXML produces the feature.xml descriptor. Each fragment appears as a
// plugin entry carrying the byte size of its packaged jar.
func (f *Feature) RenderXML(pct float64) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<feature\n")
	b.WriteString("\tid=\"" + xmlEscape(f.ID()) + "\"\n")
	b.WriteString("\tlabel=\"" + xmlEscape(f.Label(pct)) + "\"\n")
	b.WriteString("\timage=\"eclipse_update_120.jpg\"\n")
	b.WriteString("\tprovider-name=\"%providerName\"\n")
	b.WriteString("\tversion=\"" + xmlEscape(f.Train.VersionSuffix()) + "\">\n")
	b.WriteString("\t<description>" + xmlEscape(f.Description()) + "</description>\n")
	b.WriteString("\t<copyright>\n\t\t%copyright\n\t</copyright>\n")
	b.WriteString("\t<license url=\"%licenseURL\">\n\t\t%license\n\t</license>\n")
	for _, frag := range f.Fragments {
		size := strconv.FormatInt(frag.Size, 10)
		b.WriteString("\t<plugin fragment=\"true\" id=\"" + xmlEscape(frag.ID()) +
			"\" unpack=\"false\" version=\"" + xmlEscape(f.Train.VersionSuffix()) +
			"\" download-size=\"" + size + "\" install-size=\"" + size + "\"/>\n")
	}
	b.WriteString("</feature>\n")
	return b.String()
}

// WriteContent stages the feature's files under staging: the descriptor,
// the bundled legal and branding files and, for the pseudo-language, one
// provenance index page per covered project. The staging directory is
// wiped first.
func (f *Feature) WriteContent(ctx context.Context, q *store.Queries, staging string, pct float64) error {
	if err := pack.CleanDir(staging); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(staging, "feature.xml"), []byte(f.RenderXML(pct)), 0o644); err != nil {
		return fmt.Errorf("writing feature.xml for %s: %w", f.ID(), err)
	}
	for _, name := range featureSourceFiles {
		if err := writeSourceFile(name, staging); err != nil {
			return err
		}
	}
	if f.Language.IsPseudo() {
		if err := f.writePseudoIndexes(ctx, q, staging); err != nil {
			return err
		}
	}
	return nil
}

var indexSanitizer = bluemonday.StrictPolicy()

// writePseudoIndexes emits one BabelPseudoTranslationsIndex-<project>.html
// per covered project, linking every packaged string back to its portal
// translation page.
func (f *Feature) writePseudoIndexes(ctx context.Context, q *store.Queries, staging string) error {
	for _, proj := range f.projects {
		var b strings.Builder
		title := "Babel Pseudo Translations Index for " + proj.ID
		b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
		b.WriteString("<meta charset=\"UTF-8\">\n")
		b.WriteString("<title>" + xmlEscape(title) + "</title>\n")
		b.WriteString("</head>\n<body>\n")
		b.WriteString("<h1>" + xmlEscape(title) + "</h1>\n")
		b.WriteString("<h2>Version: " + xmlEscape(f.Train.VersionSuffix()) + "</h2>\n")
		b.WriteString("<ul>\n")

		for _, frag := range f.Fragments {
			for _, file := range frag.Files {
				if file.ProjectID != proj.ID || file.Version != proj.Version {
					continue
				}
				msgs, err := q.SourceStrings(ctx, file.ID)
				if err != nil {
					return fmt.Errorf("indexing %s: %w", file.Name, err)
				}
				for _, m := range msgs {
					link := translateURL + "?" + url.Values{
						"project": {proj.ID},
						"version": {proj.Version},
						"file":    {file.Name},
						"string":  {m.Key},
					}.Encode()
					b.WriteString("<li><a href=\"" + xmlEscape(link) + "\">" +
						proj.ID + strconv.FormatInt(m.ID, 10) + "</a>&nbsp;" +
						truncateValue(m.Value) + "</li>\n")
				}
			}
		}

		b.WriteString("</ul>\n</body>\n</html>\n")
		dest := filepath.Join(staging, "BabelPseudoTranslationsIndex-"+proj.ID+".html")
		if err := os.WriteFile(dest, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("writing pseudo index for %s: %w", proj.ID, err)
		}
	}
	return nil
}

// truncateValue sanitizes a string value for display in an index page and
// caps it at 100 runes.
func truncateValue(value string) string {
	clean := indexSanitizer.Sanitize(value)
	runes := []rune(clean)
	if len(runes) > 100 {
		return string(runes[:100]) + " ..."
	}
	return clean
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
