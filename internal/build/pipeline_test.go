// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/babelgen/internal/cache"
	"github.com/olegiv/babelgen/internal/config"
	"github.com/olegiv/babelgen/internal/model"
	"github.com/olegiv/babelgen/internal/store"
	"github.com/olegiv/babelgen/internal/testutil"
)

func testBuilder(t *testing.T) (*Builder, *store.Queries, *config.Config) {
	t.Helper()

	db := testutil.TestDB(t)
	q := store.New(db)
	if err := q.SeedDemo(context.Background()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	cfg := &config.Config{
		WorkDir:     t.TempDir(),
		Context:     "dev",
		MirrorsURL:  "http://babel.eclipse.org/mirrors.php",
		CacheTTL:    60,
		Parallelism: 2,
	}
	b := NewBuilder(cfg, q, cache.NewMemoryCache(time.Minute), discardLogger())
	return b, q, cfg
}

// readArchiveEntry returns the content of one entry of a jar or zip.
func readArchiveEntry(t *testing.T, archive, entry string) string {
	t.Helper()
	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("opening %s: %v", archive, err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening entry %s: %v", entry, err)
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading entry %s: %v", entry, err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found in %s", entry, archive)
	return ""
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func globOne(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) != 1 {
		t.Fatalf("glob %s: matches=%v err=%v", pattern, matches, err)
	}
	return matches[0]
}

func TestRunBuildsFullSite(t *testing.T) {
	b, _, cfg := testBuilder(t)

	opts := Options{
		Trains:      []model.ReleaseTrain{{ID: "galileo", Version: "3.5.0"}},
		BuildID:     "test-run",
		Parallelism: 2,
	}
	if err := b.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	siteDir := filepath.Join(cfg.OutputDir(), "galileo", "eclipse")

	// Pseudo: 3 fragments over 2 features; French: 3 over 2; German: 2 over 1.
	jars, _ := filepath.Glob(filepath.Join(siteDir, "plugins", "*.jar"))
	if len(jars) != 8 {
		t.Errorf("got %d fragment jars, want 8: %v", len(jars), jars)
	}
	featJars, _ := filepath.Glob(filepath.Join(siteDir, "features", "*.jar"))
	if len(featJars) != 5 {
		t.Errorf("got %d feature jars, want 5: %v", len(featJars), featJars)
	}
	zips, _ := filepath.Glob(filepath.Join(cfg.LanguagePacksDir(), "*.zip"))
	if len(zips) != 5 {
		t.Errorf("got %d language packs, want 5: %v", len(zips), zips)
	}

	// Localized resource content: translated keys only, plugin-relative path.
	frUI := globOne(t, filepath.Join(siteDir, "plugins", "org.eclipse.ui.nl_fr_*.jar"))
	props := readArchiveEntry(t, frUI, "plugin_fr.properties")
	if !strings.Contains(props, "openFile=Ouvrir le fichier...") {
		t.Errorf("missing translation in %q", props)
	}
	if strings.Contains(props, "saveAll") {
		t.Errorf("untranslated key rendered: %q", props)
	}

	// Nested source-folder path reduced to the plugin root.
	frCore := globOne(t, filepath.Join(siteDir, "plugins", "org.eclipse.core.runtime.nl_fr_*.jar"))
	core := readArchiveEntry(t, frCore, "org/eclipse/core/runtime/messages_fr.properties")
	if !strings.Contains(core, "cancel=Annuler") {
		t.Errorf("unexpected core content: %q", core)
	}

	// Feature descriptor: completion label and real jar sizes.
	frFeat := globOne(t, filepath.Join(siteDir, "features", "org.eclipse.babel.nls_eclipse_fr_*.jar"))
	featXML := readArchiveEntry(t, frFeat, "feature.xml")
	if !strings.Contains(featXML, "(80%)") {
		t.Errorf("eclipse/fr label missing 80%%:\n%s", featXML)
	}
	if strings.Contains(featXML, `download-size="0"`) {
		t.Errorf("descriptor has zero-size fragments:\n%s", featXML)
	}

	deFeat := globOne(t, filepath.Join(siteDir, "features", "org.eclipse.babel.nls_eclipse_de_*.jar"))
	if xml := readArchiveEntry(t, deFeat, "feature.xml"); !strings.Contains(xml, "(60%)") {
		t.Errorf("eclipse/de label missing 60%%:\n%s", xml)
	}

	// Pseudo feature ships provenance markers and the index page.
	pseudoFeat := globOne(t, filepath.Join(siteDir, "features", "org.eclipse.babel.nls_eclipse_en_AA_*.jar"))
	index := readArchiveEntry(t, pseudoFeat, "BabelPseudoTranslationsIndex-eclipse.html")
	if !strings.Contains(index, "translate.php") {
		t.Errorf("pseudo index has no portal links:\n%s", index)
	}
	pseudoUI := globOne(t, filepath.Join(siteDir, "plugins", "org.eclipse.ui.nl_en_AA_*.jar"))
	if p := readArchiveEntry(t, pseudoUI, "plugin_en_AA.properties"); !strings.Contains(p, ":Open File...") {
		t.Errorf("pseudo values missing provenance: %q", p)
	}

	// Site descriptor lists every category and feature.
	site, err := readFile(filepath.Join(siteDir, "site.xml"))
	if err != nil {
		t.Fatalf("site.xml: %v", err)
	}
	for _, want := range []string{
		"Babel Language Packs in Pseudo Translations",
		"Babel Language Packs in French",
		"Babel Language Packs in German",
		"org.eclipse.babel.nls_eclipse_fr",
		"org.eclipse.babel.nls_birt_fr",
		"org.eclipse.babel.nls_eclipse_de",
	} {
		if !strings.Contains(site, want) {
			t.Errorf("site.xml missing %q", want)
		}
	}
	if strings.Count(site, "<category-def") != 3 {
		t.Errorf("want 3 category definitions:\n%s", site)
	}
	if strings.Count(site, "<feature") != 5 {
		t.Errorf("want 5 feature entries:\n%s", site)
	}

	// Distribution zip is rooted at eclipse/ and carries the fragment jars.
	frZip := globOne(t, filepath.Join(cfg.LanguagePacksDir(), "BabelLanguagePack-eclipse-fr_*.zip"))
	r, err := zip.OpenReader(frZip)
	if err != nil {
		t.Fatalf("opening pack: %v", err)
	}
	defer func() { _ = r.Close() }()
	var hasFeature, hasPlugin bool
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "eclipse/") {
			t.Errorf("pack entry not rooted at eclipse/: %q", f.Name)
		}
		if strings.Contains(f.Name, "/features/") && strings.HasSuffix(f.Name, "feature.xml") {
			hasFeature = true
		}
		if strings.Contains(f.Name, "/plugins/") && strings.HasSuffix(f.Name, ".jar") {
			hasPlugin = true
		}
	}
	if !hasFeature || !hasPlugin {
		t.Errorf("pack incomplete: feature=%v plugin=%v", hasFeature, hasPlugin)
	}

	// Download page lists every pack.
	links, err := readFile(filepath.Join(cfg.LanguagePacksDir(), "galileo.html"))
	if err != nil {
		t.Fatalf("links index: %v", err)
	}
	if strings.Count(links, "BabelLanguagePack-") != 10 { // 5 packs, name appears in href and text
		t.Errorf("links index pack count wrong:\n%s", links)
	}

	// Staging is cleaned up after the run.
	leftovers, _ := filepath.Glob(filepath.Join(cfg.TmpDir(), "*", "*"))
	if len(leftovers) != 0 {
		t.Errorf("staging leftovers: %v", leftovers)
	}
}

func TestRebuildDeterminism(t *testing.T) {
	b, _, cfg := testBuilder(t)
	train := model.ReleaseTrain{ID: "galileo", Version: "3.5.0"}
	siteDir := filepath.Join(cfg.OutputDir(), "galileo", "eclipse")

	// The timestamp token is the only part allowed to differ between runs
	// over an unchanged database.
	stamp := regexp.MustCompile(`v\d{14}`)
	normalize := func(s string) string { return stamp.ReplaceAllString(s, "vTS") }

	read := func(run string) (site, feature string) {
		site, err := readFile(filepath.Join(siteDir, "site.xml"))
		if err != nil {
			t.Fatalf("%s site.xml: %v", run, err)
		}
		jar := globOne(t, filepath.Join(siteDir, "features", "org.eclipse.babel.nls_eclipse_fr_*.jar"))
		return normalize(site), normalize(readArchiveEntry(t, jar, "feature.xml"))
	}

	if err := b.Run(context.Background(), Options{Trains: []model.ReleaseTrain{train}, BuildID: "one"}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	site1, feat1 := read("first")

	// A later run replaces the whole train tree.
	if err := os.RemoveAll(filepath.Join(cfg.OutputDir(), "galileo")); err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background(), Options{Trains: []model.ReleaseTrain{train}, BuildID: "two"}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	site2, feat2 := read("second")

	if site1 != site2 {
		t.Errorf("site.xml differs between rebuilds:\n%s\n---\n%s", site1, site2)
	}
	if feat1 != feat2 {
		t.Errorf("feature.xml differs between rebuilds:\n%s\n---\n%s", feat1, feat2)
	}
}

func TestRunUnknownTrainProducesEmptySite(t *testing.T) {
	b, _, cfg := testBuilder(t)

	// No files are selected for an unregistered train; the run succeeds and
	// produces an empty site.
	opts := Options{Trains: []model.ReleaseTrain{{ID: "helios", Version: "3.6.0"}}}
	if err := b.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	site, err := readFile(filepath.Join(cfg.OutputDir(), "helios", "eclipse", "site.xml"))
	if err != nil {
		t.Fatalf("site.xml: %v", err)
	}
	if strings.Contains(site, "<feature") {
		t.Errorf("empty train produced features:\n%s", site)
	}
}
