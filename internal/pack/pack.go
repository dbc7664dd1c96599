// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pack turns staged directories into jar and zip archives.
//
// Archives are built in-process with archive/zip rather than by shelling out
// to external tools, so a failed packaging step surfaces as an ordinary
// error the caller can log and continue past. The same directory contents
// always produce the same archive entries in the same order; only entry
// timestamps vary between runs, and no descriptor field depends on them.
package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// Archiver packages staged directories. The zero value is not usable; use New.
type Archiver struct {
	level int
}

// New returns an Archiver with the default compression level.
func New() *Archiver {
	return &Archiver{level: flate.DefaultCompression}
}

// Jar archives the contents of dir into dest. Entry names are relative to
// dir, matching a "jar cfM dir/." invocation. It returns the byte size of
// the produced archive, which feature descriptors embed as download-size
// and install-size.
func (a *Archiver) Jar(dir, dest string) (int64, error) {
	return a.archive(dir, "", dest)
}

// Zip archives parent/base into dest with entry names rooted at base,
// matching a "cd parent && zip -r dest base" invocation. Used for the
// distribution language-pack bundles, whose entries start with "eclipse/".
func (a *Archiver) Zip(parent, base, dest string) (int64, error) {
	return a.archive(filepath.Join(parent, base), base, dest)
}

func (a *Archiver) archive(root, prefix, dest string) (size int64, err error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("creating archive %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, a.level)
	})

	// WalkDir visits entries in lexical order, which keeps archive layout
	// stable across rebuilds.
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}
		return a.addFile(zw, path, name, d)
	})
	if walkErr != nil {
		_ = zw.Close()
		return 0, fmt.Errorf("archiving %s: %w", root, walkErr)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalizing archive %s: %w", dest, err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fmt.Errorf("sizing archive %s: %w", dest, err)
	}
	return info.Size(), nil
}

func (a *Archiver) addFile(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// FileSize reports the byte size of an existing archive, or 0 when the
// archive is missing. Descriptors for missing archives degrade to zero
// sizes instead of failing the run.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// CleanDir removes dir and recreates it empty, so staging never sees
// leftovers from a previous unit of work.
func CleanDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cleaning %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("recreating %s: %w", dir, err)
	}
	return nil
}

// SafeChild joins name under dir and rejects names that escape it.
func SafeChild(dir, name string) (string, error) {
	joined := filepath.Join(dir, filepath.FromSlash(name))
	cleanDir := filepath.Clean(dir)
	if joined != cleanDir && !strings.HasPrefix(joined, cleanDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", name, dir)
	}
	return joined, nil
}
