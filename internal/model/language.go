// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the value objects the build pipeline iterates over:
// translation languages, release trains, and the files and projects that
// feed fragment and feature generation.
package model

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// The English reference content is packaged as a synthetic pseudo-language
// so reviewers can install it and see string provenance in the UI.
const (
	PseudoISO  = "en_AA"
	PseudoName = "Pseudo Translations"
)

// Language is a translation target locale.
type Language struct {
	ID       int64
	ISO      string // ISO 639-1 code, or en_AA for the pseudo-language
	Locale   string // optional locale variant, e.g. "BR" for pt_BR
	Name     string // English display name as stored in the reference table
	IsActive bool
}

// Pseudoize maps the English source language onto the synthetic
// pseudo-language. All other languages pass through unchanged.
func (l Language) Pseudoize() Language {
	if l.ISO == "en" {
		l.ISO = PseudoISO
		l.Name = PseudoName
		l.Locale = ""
	}
	return l
}

// IsPseudo reports whether this is the synthetic pseudo-language.
func (l Language) IsPseudo() bool {
	return l.ISO == PseudoISO
}

// DisplayName returns the name used in descriptors and category labels:
// the stored name, with the locale variant appended when present. Languages
// without a stored name fall back to the CLDR English display name.
func (l Language) DisplayName() string {
	name := l.Name
	if name == "" {
		if tag, err := language.Parse(l.ISO); err == nil {
			name = display.English.Languages().Name(tag)
		}
	}
	if l.Locale != "" {
		name += " (" + l.Locale + ")"
	}
	return name
}
