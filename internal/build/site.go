// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"fmt"
	"os"
	"strings"

	"github.com/olegiv/babelgen/internal/model"
)

// SiteAssembler accumulates the update-site descriptor for one release
// train. Categories and features are emitted in insertion order, one
// category per language followed by that language's features.
type SiteAssembler struct {
	mirrorsURL string
	nodes      []string
}

// NewSiteAssembler starts an empty descriptor. mirrorsURL is emitted on the
// site element so the update manager can redirect downloads to mirrors.
func NewSiteAssembler(mirrorsURL string) *SiteAssembler {
	return &SiteAssembler{mirrorsURL: mirrorsURL}
}

// CategoryName is the update-manager category a language's features file
// under.
func CategoryName(lang model.Language) string {
	return "Babel Language Packs in " + lang.DisplayName()
}

// AddCategory declares a category definition. Call once per language that
// contributed at least one feature.
func (s *SiteAssembler) AddCategory(name string) {
	s.nodes = append(s.nodes,
		"\t<category-def name=\""+xmlEscape(name)+"\" label=\""+xmlEscape(name)+"\">\n"+
			"\t\t<description>"+xmlEscape(name)+"</description>\n"+
			"\t</category-def>\n")
}

// AddFeature records one installable feature under the given category.
func (s *SiteAssembler) AddFeature(archiveName, id, version, category string) {
	s.nodes = append(s.nodes,
		"\t<feature url=\"features/"+xmlEscape(archiveName)+"\" id=\""+xmlEscape(id)+
			"\" version=\""+xmlEscape(version)+"\">\n"+
			"\t\t<category name=\""+xmlEscape(category)+"\"/>\n"+
			"\t</feature>\n")
}

// Render produces the complete site.xml text.
func (s *SiteAssembler) Render() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<site mirrorsURL=\"" + xmlEscape(s.mirrorsURL) + "\">\n")
	b.WriteString("\t<description url=\"http://babel.eclipse.org/\">\n")
	b.WriteString("\t\tLanguage pack features generated from community translations.\n")
	b.WriteString("\t</description>\n")
	for _, node := range s.nodes {
		b.WriteString(node)
	}
	b.WriteString("</site>\n")
	return b.String()
}

// WriteFile renders the descriptor to path.
func (s *SiteAssembler) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(s.Render()), 0o644); err != nil {
		return fmt.Errorf("writing site descriptor: %w", err)
	}
	return nil
}

// LinksIndex accumulates the download page listing every distribution zip
// produced for one release train, grouped by language.
type LinksIndex struct {
	train    model.ReleaseTrain
	buildID  string
	body     strings.Builder
	openList bool
}

// NewLinksIndex starts an empty download page for the given train and run.
func NewLinksIndex(train model.ReleaseTrain, buildID string) *LinksIndex {
	return &LinksIndex{train: train, buildID: buildID}
}

// AddLanguage opens a new language section.
func (x *LinksIndex) AddLanguage(name string) {
	x.closeList()
	x.body.WriteString("<h2>" + xmlEscape(name) + "</h2>\n<ul>\n")
	x.openList = true
}

// AddPack lists one distribution zip in the current language section.
func (x *LinksIndex) AddPack(zipName string, pct float64) {
	x.body.WriteString("<li><a href=\"" + xmlEscape(zipName) + "\">" + xmlEscape(zipName) +
		"</a> (" + formatPct(pct) + "%)</li>\n")
}

func (x *LinksIndex) closeList() {
	if x.openList {
		x.body.WriteString("</ul>\n")
		x.openList = false
	}
}

// Render produces the complete download page.
func (x *LinksIndex) Render() string {
	title := "Babel Language Packs for " + x.train.ID

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<title>" + xmlEscape(title) + "</title>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("<h1>" + xmlEscape(title) + "</h1>\n")
	b.WriteString("<p>Build " + xmlEscape(x.buildID) + ", version " + xmlEscape(x.train.VersionSuffix()) + "</p>\n")
	b.WriteString(x.body.String())
	if x.openList {
		b.WriteString("</ul>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// WriteFile renders the download page to path.
func (x *LinksIndex) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(x.Render()), 0o644); err != nil {
		return fmt.Errorf("writing links index: %w", err)
	}
	return nil
}
