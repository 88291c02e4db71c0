package pipeline

import (
	"strings"
	"testing"

	"github.com/dunamismax/edgeresize/internal/config"
)

func newTestInterpreter() *Interpreter {
	return NewInterpreter(config.NewAllowedWidths(200, 800, 1920))
}

func TestParseDefaults(t *testing.T) {
	req, err := newTestInterpreter().Parse("/photos/a.jpg", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.ObjectKey != "photos/a.jpg" {
		t.Fatalf("expected key photos/a.jpg, got %s", req.ObjectKey)
	}
	if req.TargetWidth != 800 {
		t.Fatalf("expected default width 800, got %d", req.TargetWidth)
	}
	if req.OutputFormat != FormatAuto {
		t.Fatalf("expected default format auto, got %s", req.OutputFormat)
	}
}

func TestParseExplicitParameters(t *testing.T) {
	req, err := newTestInterpreter().Parse("/photos/a.jpg", "width=1920&format=JPEG")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.TargetWidth != 1920 {
		t.Fatalf("expected width 1920, got %d", req.TargetWidth)
	}
	if req.OutputFormat != FormatJPEG {
		t.Fatalf("expected format jpeg, got %s", req.OutputFormat)
	}
}

func TestParseEmptyWidthUsesDefault(t *testing.T) {
	req, err := newTestInterpreter().Parse("/a.jpg", "width=&format=")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.TargetWidth != 800 || req.OutputFormat != FormatAuto {
		t.Fatalf("expected defaults, got width=%d format=%s", req.TargetWidth, req.OutputFormat)
	}
}

func TestParseUnknownFormatPassesThrough(t *testing.T) {
	req, err := newTestInterpreter().Parse("/a.jpg", "width=200&format=avif")
	if err != nil {
		t.Fatalf("unknown formats must not be rejected, got %v", err)
	}
	if req.OutputFormat != Format("avif") {
		t.Fatalf("expected format avif, got %s", req.OutputFormat)
	}
}

func TestParseRejectsWidths(t *testing.T) {
	cases := []string{
		"width=999",
		"width=0",
		"width=-800",
		"width=800abc",
		"width=abc",
		"width=8e2",
		"width=1920.0",
	}
	for _, query := range cases {
		_, err := newTestInterpreter().Parse("/photos/a.jpg", query)
		if err == nil {
			t.Fatalf("%s: expected error", query)
		}
		if KindOf(err) != KindInvalidInput {
			t.Fatalf("%s: expected invalid input, got %s", query, KindOf(err))
		}
		if got := MessageOf(err); got != "Invalid width. Allowed: 200, 800, 1920" {
			t.Fatalf("%s: unexpected message %q", query, got)
		}
	}
}

func TestParseDefaultWidthMustBeAllowed(t *testing.T) {
	in := NewInterpreter(config.NewAllowedWidths(320, 640))
	_, err := in.Parse("/a.jpg", "")
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input when 800 is not allowed, got %v", err)
	}
	if !strings.Contains(MessageOf(err), "320, 640") {
		t.Fatalf("expected message to list the allow-list, got %q", MessageOf(err))
	}
}

func TestParseRejectsUnsafeKeys(t *testing.T) {
	cases := map[string]string{
		"/":                "S3 key is required",
		"":                 "S3 key is required",
		"/../etc/passwd":   "Invalid S3 key",
		"/photos/../x.jpg": "Invalid S3 key",
		"/photos/a..b.jpg": "Invalid S3 key",
		"//etc/passwd":     "Invalid S3 key",
		"/%2e%2e/secret":   "Invalid S3 key",
		"/%2Fetc/passwd":   "Invalid S3 key",
		"/bad%zzescape":    "Invalid S3 key",
		"/nul%00byte.jpg":  "Invalid S3 key",
	}
	for path, want := range cases {
		// Valid width so only the key can fail.
		_, err := newTestInterpreter().Parse(path, "width=200")
		if err == nil {
			t.Fatalf("%q: expected error", path)
		}
		if KindOf(err) != KindInvalidInput {
			t.Fatalf("%q: expected invalid input, got %s", path, KindOf(err))
		}
		if got := MessageOf(err); got != want {
			t.Fatalf("%q: expected %q, got %q", path, want, got)
		}
	}
}

func TestParseKeyCheckedBeforeWidth(t *testing.T) {
	_, err := newTestInterpreter().Parse("/../etc/passwd", "width=999")
	if got := MessageOf(err); got != "Invalid S3 key" {
		t.Fatalf("expected key error to win, got %q", got)
	}
}

func TestParseDecodesEscapedKeys(t *testing.T) {
	req, err := newTestInterpreter().Parse("/photos/summer%20trip/a.jpg", "width=200")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.ObjectKey != "photos/summer trip/a.jpg" {
		t.Fatalf("unexpected key %q", req.ObjectKey)
	}
}
