// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package props renders Java .properties resource files.
//
// Format: key=value pairs, one per line, preceded by a fixed copyright
// comment. Resource files are ASCII by convention, so every value is run
// through EscapeUnicode before it is written. Entry order is preserved:
// rendering the same entries twice produces identical bytes.
package props

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// Header is the comment line opening every generated resource file.
const Header = "# Copyright by many contributors; see http://babel.eclipse.org/"

// Entry is a single message key and its rendered value.
type Entry struct {
	Key   string
	Value string
}

// Render produces the full resource file content for the given entries.
// Values are unicode-escaped; keys are expected to be ASCII already.
func Render(entries []Entry) []byte {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(e.Key)
		b.WriteString("=")
		b.WriteString(EscapeUnicode(e.Value))
	}
	return []byte(b.String())
}

// EscapeUnicode re-emits every non-ASCII rune as a \uXXXX escape with
// lowercase, zero-padded hex digits. ASCII bytes pass through unchanged.
// Runes above U+FFFF are emitted as a UTF-16 surrogate pair.
func EscapeUnicode(s string) string {
	// Fast path: pure ASCII needs no allocation.
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			b.WriteByte(byte(r))
		case r <= 0xFFFF:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		}
	}
	return b.String()
}
