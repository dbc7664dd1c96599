// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// TranslatableFile is one key/value resource selected for a language pack.
// Name is the raw path recorded by the crawler; normalization into a plugin
// id and resource path happens during fragment grouping.
type TranslatableFile struct {
	ID        int64
	ProjectID string
	Version   string
	Name      string
}

// ProjectRef identifies one version of an umbrella project. Projects are
// derived from the files a fragment packages, never stored on their own.
type ProjectRef struct {
	ID      string
	Version string
}
