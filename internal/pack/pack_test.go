// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func stage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func entryNames(t *testing.T, archive string) []string {
	t.Helper()
	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("opening %s: %v", archive, err)
	}
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestJar(t *testing.T) {
	dir := stage(t, map[string]string{
		"META-INF/MANIFEST.MF":     "Manifest-Version: 1.0\n",
		"plugin_fr.properties":     "key=valeur",
		"org/example/ui.properties": "a=b",
	})
	dest := filepath.Join(t.TempDir(), "fragment.jar")

	size, err := New().Jar(dir, dest)
	if err != nil {
		t.Fatalf("Jar: %v", err)
	}
	if size <= 0 {
		t.Errorf("size = %d, want > 0", size)
	}
	if size != FileSize(dest) {
		t.Errorf("reported size %d != on-disk size %d", size, FileSize(dest))
	}

	names := entryNames(t, dest)
	want := map[string]bool{
		"META-INF/MANIFEST.MF":      true,
		"plugin_fr.properties":      true,
		"org/example/ui.properties": true,
	}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %d entries", names, len(want))
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected entry %q", n)
		}
	}
}

func TestZipRootsEntriesAtBase(t *testing.T) {
	parent := t.TempDir()
	for _, f := range []string{
		"eclipse/features/feat_1.0/feature.xml",
		"eclipse/plugins/frag_1.0.jar",
	} {
		path := filepath.Join(parent, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	dest := filepath.Join(t.TempDir(), "pack.zip")

	if _, err := New().Zip(parent, "eclipse", dest); err != nil {
		t.Fatalf("Zip: %v", err)
	}
	for _, n := range entryNames(t, dest) {
		if n != "eclipse/features/feat_1.0/feature.xml" && n != "eclipse/plugins/frag_1.0.jar" {
			t.Errorf("unexpected entry %q", n)
		}
	}
}

func TestJarDeterministicEntryOrder(t *testing.T) {
	files := map[string]string{
		"b.properties": "2",
		"a.properties": "1",
		"c/d.properties": "3",
	}
	first := filepath.Join(t.TempDir(), "one.jar")
	second := filepath.Join(t.TempDir(), "two.jar")

	if _, err := New().Jar(stage(t, files), first); err != nil {
		t.Fatal(err)
	}
	if _, err := New().Jar(stage(t, files), second); err != nil {
		t.Fatal(err)
	}

	a, b := entryNames(t, first), entryNames(t, second)
	if len(a) != len(b) {
		t.Fatalf("entry counts differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestJarMissingDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.jar")
	if _, err := New().Jar(filepath.Join(t.TempDir(), "nope"), dest); err == nil {
		t.Fatal("expected error for missing staging directory")
	}
}

func TestFileSizeMissing(t *testing.T) {
	if got := FileSize(filepath.Join(t.TempDir(), "absent.jar")); got != 0 {
		t.Errorf("FileSize(missing) = %d, want 0", got)
	}
}

func TestCleanDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	if err := os.MkdirAll(filepath.Join(dir, "stale"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stale", "old.properties"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CleanDir(dir); err != nil {
		t.Fatalf("CleanDir: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not empty after CleanDir: %v", entries)
	}
}

func TestSafeChild(t *testing.T) {
	dir := t.TempDir()
	if _, err := SafeChild(dir, "ok/nested.properties"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := SafeChild(dir, "../escape.properties"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}
