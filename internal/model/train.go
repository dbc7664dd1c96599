// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// ReleaseTrain is a named release line. The timestamp is fixed once per run
// so every artifact generated in that run carries the same version suffix.
type ReleaseTrain struct {
	ID        string // e.g. "galileo"
	Version   string // e.g. "3.5.0"
	Timestamp string // e.g. "20260831120000"
}

// timestampLayout fixes the version suffix token to second precision.
const timestampLayout = "20060102150405"

// Stamp returns a copy of the train with its timestamp fixed to now.
func (t ReleaseTrain) Stamp(now time.Time) ReleaseTrain {
	t.Timestamp = now.Format(timestampLayout)
	return t
}

// VersionSuffix is the version token embedded in every artifact name and
// descriptor produced for this train, e.g. "3.5.0.v20260831120000".
func (t ReleaseTrain) VersionSuffix() string {
	return t.Version + ".v" + t.Timestamp
}

// DefaultTrains lists the release lines built when none is selected,
// most recent first.
func DefaultTrains() []ReleaseTrain {
	return []ReleaseTrain{
		{ID: "galileo", Version: "3.5.0"},
		{ID: "ganymede", Version: "3.4.0"},
		{ID: "europa", Version: "3.3.0"},
	}
}
