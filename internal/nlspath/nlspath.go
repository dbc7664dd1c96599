// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nlspath derives canonical plugin-qualified resource paths from the
// raw file paths recorded by the source crawler. Raw paths may still carry
// checkout directory structure or an embedded Java source folder; the
// rewrites here reduce them to "plugin.id/resource.properties" so a file can
// be attributed to the plugin fragment that will package it.
package nlspath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoPlugin reports a path that cannot be attributed to any plugin.
var ErrNoPlugin = errors.New("no plug-in name found in path")

var (
	// checkoutPrefixRe strips checkout directory structure preceding the
	// first dotted "name.qualifier" segment. The prefix character class
	// deliberately excludes dots: the first dotted segment is the plugin id.
	checkoutPrefixRe = regexp.MustCompile(`(?i)^[a-zA-Z0-9/_-]+/([a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+.*\.properties)$`)

	// pluginSegRe matches a path segment that looks like a plugin id:
	// a top-level domain part, a dot, and the rest of the identifier.
	pluginSegRe = regexp.MustCompile(`^([a-zA-Z]+)\.([^/]+)$`)

	// pluginSplitRe splits a canonical path into plugin id and resource.
	pluginSplitRe = regexp.MustCompile(`^([a-zA-Z0-9.]+)/(.*)$`)

	propExtRe = regexp.MustCompile(`^(.*)\.properties$`)
)

// Normalize rewrites a raw crawler path into its plugin id and the resource
// path relative to the plugin root. It returns ErrNoPlugin when no
// plugin-qualified form can be derived; such files belong to no fragment.
func Normalize(raw string) (pluginID, resource string, err error) {
	name := checkoutPrefixRe.ReplaceAllString(raw, "$1")
	name = fixResourceRoot(name)

	m := pluginSplitRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrNoPlugin, raw)
	}
	return m[1], m[2], nil
}

// fixResourceRoot rewrites paths of the form
//
//	org.example.plugin/src/org/example/plugin/messages.properties
//	org.example.plugin/src/plugin.properties
//
// so that the resource path is relative to the plugin root. The resource
// either re-enters a directory repeating the plugin's top-level domain part
// or is a bare filename in the plugin root; intervening source folders are
// dropped. Paths that do not match are returned unchanged.
func fixResourceRoot(name string) string {
	segs := strings.Split(name, "/")
	last := len(segs) - 1
	if last < 1 || !strings.HasSuffix(strings.ToLower(segs[last]), ".properties") {
		return name
	}

	// Prefer the rightmost segment that looks like a plugin id, matching
	// the greedy leading-directories group of the historical rewrite rule.
	for i := last - 1; i >= 0; i-- {
		m := pluginSegRe.FindStringSubmatch(segs[i])
		if m == nil {
			continue
		}
		rest := segs[i+1:]
		// The source-folder prefix is lazy: the resource path starts as
		// early as possible.
		for j := range rest {
			if j < len(rest)-1 && strings.EqualFold(rest[j], m[1]) {
				return m[1] + "." + m[2] + "/" + strings.Join(rest[j:], "/")
			}
			if j == len(rest)-1 {
				return m[1] + "." + m[2] + "/" + rest[j]
			}
		}
	}
	return name
}

// AppendLangCode derives the localized filename for a resource: the trailing
// ".properties" extension becomes "_<iso>.properties". Names without the
// extension pass through unchanged.
func AppendLangCode(name, iso string) string {
	if m := propExtRe.FindStringSubmatch(name); m != nil {
		return m[1] + "_" + iso + ".properties"
	}
	return name
}
