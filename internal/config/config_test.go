package config

import (
	"testing"
	"time"
)

func TestParseAllowedWidthsDefault(t *testing.T) {
	widths, err := ParseAllowedWidths("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := widths.String(); got != "200, 800, 1920" {
		t.Fatalf("expected default widths, got %q", got)
	}
}

func TestParseAllowedWidthsSortsAndDeduplicates(t *testing.T) {
	widths, err := ParseAllowedWidths(" 1920,200, ,800,200")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := widths.String(); got != "200, 800, 1920" {
		t.Fatalf("expected sorted unique widths, got %q", got)
	}
	if !widths.Contains(800) {
		t.Fatal("expected 800 to be allowed")
	}
	if widths.Contains(999) {
		t.Fatal("expected 999 to be rejected")
	}
}

func TestParseAllowedWidthsRejectsInvalidEntries(t *testing.T) {
	for _, raw := range []string{"200,abc", "0", "-5,800", "8OO"} {
		if _, err := ParseAllowedWidths(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestAllowedWidthsValuesIsACopy(t *testing.T) {
	widths := NewAllowedWidths(800, 200)
	values := widths.Values()
	values[0] = 1

	if !widths.Contains(200) {
		t.Fatal("mutating Values() must not change the allow-list")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SOURCE_BUCKET", "blind-dev")
	t.Setenv("ALLOWED_WIDTHS", "320,640")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("CACHE_MAX_AGE", "1h")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("METRICS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Storage.Backend != BackendMinio {
		t.Fatalf("expected minio backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Resize.AllowedWidths.String() != "320, 640" {
		t.Fatalf("unexpected widths %s", cfg.Resize.AllowedWidths)
	}
	if cfg.Resize.CacheMaxAge != time.Hour {
		t.Fatalf("expected 1h cache max-age, got %s", cfg.Resize.CacheMaxAge)
	}
	if !cfg.RateLimit.Enabled() {
		t.Fatal("expected rate limiting to be enabled")
	}
	if cfg.Server.MetricsAddr != "" {
		t.Fatalf("expected metrics listener disabled, got %q", cfg.Server.MetricsAddr)
	}
}

func TestLoadRequiresBucket(t *testing.T) {
	t.Setenv("SOURCE_BUCKET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when SOURCE_BUCKET is missing")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SOURCE_BUCKET", "bucket")
	t.Setenv("STORAGE_BACKEND", "gcs")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
