//go:build !govips || !cgo

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestStdlibTransformerAppliesExifOrientation(t *testing.T) {
	// 40x20 landscape pixels tagged "rotate 90 CW" must come out portrait.
	src := withExifOrientation(t, buildTestJPEG(t, 40, 20), 6)

	out, err := stdlibTransformer{}.Transform(context.Background(), src, TransformOptions{
		Width:    800,
		Encoding: EncodingFor(FormatJPEG),
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if out.Width != 20 || out.Height != 40 {
		t.Fatalf("expected 20x40 after orientation, got %dx%d", out.Width, out.Height)
	}
	cfg := decodeConfig(t, out.Data, "jpeg")
	if cfg.Width != 20 || cfg.Height != 40 {
		t.Fatalf("expected encoded 20x40, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestStdlibTransformerRejectsZeroWidth(t *testing.T) {
	if _, err := (stdlibTransformer{}).Transform(context.Background(), buildTestPNG(t, 4, 4), TransformOptions{}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestStdlibTransformerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (stdlibTransformer{}).Transform(ctx, buildTestPNG(t, 4, 4), TransformOptions{Width: 200}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestEncodeStdRefusesSmartSubsample(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	enc := EncodingFor(FormatWebP)
	enc.SmartSubsample = true

	if _, err := encodeStd(img, enc); !errors.Is(err, errSmartSubsample) {
		t.Fatalf("expected errSmartSubsample, got %v", err)
	}
}

func buildTestJPEG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 12), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode source jpeg: %v", err)
	}
	return buf.Bytes()
}

// withExifOrientation inserts a minimal little-endian EXIF APP1 segment that
// carries only the orientation tag.
func withExifOrientation(t testing.TB, jpg []byte, orientation byte) []byte {
	t.Helper()

	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		t.Fatal("input is not a jpeg")
	}

	payload := []byte{
		'E', 'x', 'i', 'f', 0, 0,
		'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, orientation, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	size := len(payload) + 2

	out := make([]byte, 0, len(jpg)+size+2)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xE1, byte(size>>8), byte(size))
	out = append(out, payload...)
	out = append(out, jpg[2:]...)
	return out
}
