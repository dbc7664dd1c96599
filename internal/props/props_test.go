// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package props

import (
	"strings"
	"testing"
)

func TestEscapeUnicode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii passthrough", "Open File...", "Open File..."},
		{"empty", "", ""},
		{"two byte sequence", "café", `caf\u00e9`},
		{"three byte sequence", "日本語", `\u65e5\u672c\u8a9e`},
		{"mixed", "résumé file", `r\u00e9sum\u00e9 file`},
		{"zero padded", "®", `\u00ae`},
		{"supplementary plane as surrogate pair", "\U0001F600", `\ud83d\ude00`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeUnicode(tt.input); got != tt.want {
				t.Errorf("EscapeUnicode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeUnicodeASCIIIdentity(t *testing.T) {
	for _, s := range []string{"key=value", "hello world", "!@#$%^&*()", "\ttab\n"} {
		if got := EscapeUnicode(s); got != s {
			t.Errorf("EscapeUnicode(%q) = %q, want input unchanged", s, got)
		}
	}
}

func TestRender(t *testing.T) {
	entries := []Entry{
		{Key: "greeting", Value: "Bonjour"},
		{Key: "farewell", Value: "À bientôt"},
	}

	got := string(Render(entries))
	want := Header +
		"\ngreeting=Bonjour" +
		"\nfarewell=" + `\u00c0 bient\u00f4t`
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderDeterministic(t *testing.T) {
	entries := []Entry{
		{Key: "b", Value: "two"},
		{Key: "a", Value: "one"},
	}
	first := Render(entries)
	second := Render(entries)
	if string(first) != string(second) {
		t.Fatal("identical input produced different output")
	}
	// Order is the caller's order, not sorted.
	if !strings.HasPrefix(string(first), Header+"\nb=two") {
		t.Errorf("entry order not preserved: %q", first)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := string(Render(nil)); got != Header {
		t.Errorf("Render(nil) = %q, want header only", got)
	}
}
