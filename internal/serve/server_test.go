// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package serve

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/babelgen/internal/config"
	"github.com/olegiv/babelgen/internal/testutil"
)

func testServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := &config.Config{WorkDir: t.TempDir(), Context: "dev", ServeAddr: "localhost:0"}
	return New(cfg, testutil.SilentLogger()), cfg
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServesSiteFiles(t *testing.T) {
	s, cfg := testServer(t)
	siteDir := filepath.Join(cfg.OutputDir(), "galileo", "eclipse")
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(siteDir, "site.xml"), []byte("<site/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sites/galileo/eclipse/site.xml", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<site/>" {
		t.Errorf("site.xml = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMissingFileIs404(t *testing.T) {
	s, cfg := testServer(t)
	if err := os.MkdirAll(cfg.LanguagePacksDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/packs/nope.zip", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var limited bool
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("burst of requests was never limited")
	}
}

func TestRateLimitPerClient(t *testing.T) {
	lc := newLimiterCache(1, 1)
	if !lc.get("a").Allow() {
		t.Error("first request for a denied")
	}
	if !lc.get("b").Allow() {
		t.Error("client b affected by client a's limiter")
	}
	if lc.clearIfExceeds(1) != true {
		t.Error("cache not cleared above max size")
	}
}
