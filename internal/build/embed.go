// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// Static legal and branding files shipped inside every generated archive.
//
//go:embed source_files
var sourceFS embed.FS

// featureSourceFiles are copied into every feature staging directory.
var featureSourceFiles = []string{
	"about.html",
	"epl-v10.html",
	"license.html",
	"feature.properties",
	"eclipse_update_120.jpg",
}

func writeSourceFile(name, destDir string) error {
	data, err := sourceFS.ReadFile("source_files/" + name)
	if err != nil {
		return fmt.Errorf("reading bundled file %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(destDir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing bundled file %s: %w", name, err)
	}
	return nil
}
