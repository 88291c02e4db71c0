package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func functionURLRequest(method, rawPath, rawQuery string) events.LambdaFunctionURLRequest {
	return events.LambdaFunctionURLRequest{
		RawPath:        rawPath,
		RawQueryString: rawQuery,
		RequestContext: events.LambdaFunctionURLRequestContext{
			RequestID: "req-1",
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method: method,
				Path:   rawPath,
			},
		},
	}
}

func TestLambdaHandlerEncodesImageBody(t *testing.T) {
	store := &mapStore{objects: map[string][]byte{"photos/a.jpg": buildPNG(t, 1200, 600)}}
	handler, err := NewLambdaHandler(newTestResizeHandler(t, store), nil)
	if err != nil {
		t.Fatalf("new lambda handler: %v", err)
	}

	resp, err := handler.Handle(context.Background(), functionURLRequest(http.MethodGet, "/photos/a.jpg", "width=200&format=jpeg"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Fatalf("expected base64 200, got %d base64=%v", resp.StatusCode, resp.IsBase64Encoded)
	}
	if resp.Headers["Content-Type"] != "image/jpeg" || resp.Headers["X-Resized-Width"] != "200" {
		t.Fatalf("unexpected headers %v", resp.Headers)
	}
	if resp.Headers["X-Request-Id"] != "req-1" {
		t.Fatalf("expected request id header, got %v", resp.Headers)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if format != "jpeg" || cfg.Width != 200 || cfg.Height != 100 {
		t.Fatalf("expected 200x100 jpeg, got %dx%d %s", cfg.Width, cfg.Height, format)
	}
}

func TestLambdaHandlerErrorsAreJSONText(t *testing.T) {
	handler, err := NewLambdaHandler(newTestResizeHandler(t, &mapStore{}), nil)
	if err != nil {
		t.Fatalf("new lambda handler: %v", err)
	}

	resp, err := handler.Handle(context.Background(), functionURLRequest(http.MethodGet, "/photos/missing.jpg", "width=200"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || resp.IsBase64Encoded {
		t.Fatalf("expected plain 404, got %d base64=%v", resp.StatusCode, resp.IsBase64Encoded)
	}
	if resp.Body != `{"error":"Image not found"}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected content type %q", resp.Headers["Content-Type"])
	}
}

func TestLambdaHandlerHeadHasNoBody(t *testing.T) {
	store := &mapStore{objects: map[string][]byte{"a.png": buildPNG(t, 300, 200)}}
	handler, err := NewLambdaHandler(newTestResizeHandler(t, store), nil)
	if err != nil {
		t.Fatalf("new lambda handler: %v", err)
	}

	resp, _ := handler.Handle(context.Background(), functionURLRequest(http.MethodHead, "/a.png", "width=200"))
	if resp.StatusCode != http.StatusOK || resp.Body != "" {
		t.Fatalf("expected empty 200, got %d with %d body bytes", resp.StatusCode, len(resp.Body))
	}
}

func TestLambdaHandlerTreatsRawPathAsEscaped(t *testing.T) {
	store := &mapStore{objects: map[string][]byte{"photos/100%.png": buildPNG(t, 300, 200)}}
	handler, err := NewLambdaHandler(newTestResizeHandler(t, store), nil)
	if err != nil {
		t.Fatalf("new lambda handler: %v", err)
	}

	resp, _ := handler.Handle(context.Background(), functionURLRequest(http.MethodGet, "/photos/100%25.png", "width=200"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("escaped percent: expected 200, got %d %s", resp.StatusCode, resp.Body)
	}

	resp, _ = handler.Handle(context.Background(), functionURLRequest(http.MethodGet, "/photos/100%.png", "width=200"))
	if resp.StatusCode != http.StatusBadRequest || resp.Body != `{"error":"Invalid S3 key"}` {
		t.Fatalf("bare percent: expected 400 Invalid S3 key, got %d %s", resp.StatusCode, resp.Body)
	}
}
