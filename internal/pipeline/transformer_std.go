package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"
)

// stdlibTransformer is the pure-Go engine used when libvips is not compiled in.
// WebP and JPEG encoders run as WebAssembly under wazero.
type stdlibTransformer struct{}

func (t stdlibTransformer) Transform(ctx context.Context, input []byte, opts TransformOptions) (Rendered, error) {
	select {
	case <-ctx.Done():
		return Rendered{}, ctx.Err()
	default:
	}

	if opts.Width <= 0 {
		return Rendered{}, fmt.Errorf("resize requires width > 0")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return Rendered{}, fmt.Errorf("decode source header: %w", err)
	}
	if exceedsPixels(cfg.Width, cfg.Height, opts.MaxPixels) {
		return Rendered{}, fmt.Errorf("%w: %dx%d", ErrSourceTooLarge, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return Rendered{}, fmt.Errorf("decode source image: %w", err)
	}

	out := resizeToFit(src, opts.Width)

	data, err := encodeStd(out, opts.Encoding)
	if err != nil {
		return Rendered{}, err
	}

	bounds := out.Bounds()
	return Rendered{Data: data, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func resizeToFit(src image.Image, width int) image.Image {
	b := src.Bounds()
	w, h := fitWidth(b.Dx(), b.Dy(), width)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	return imaging.Resize(src, w, h, imaging.Lanczos)
}

func encodeStd(img image.Image, enc Encoding) ([]byte, error) {
	var buf bytes.Buffer

	switch enc.Codec {
	case CodecWebP:
		if enc.SmartSubsample {
			return nil, errSmartSubsample
		}
		if err := webp.Encode(&buf, img, webp.Options{
			Quality: enc.Quality,
			Method:  enc.Effort,
		}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case CodecJPEG:
		opts := &jpegli.EncodingOptions{
			Quality:              enc.Quality,
			ChromaSubsampling:    image.YCbCrSubsampleRatio420,
			OptimizeCoding:       enc.Optimize,
			AdaptiveQuantization: true,
		}
		if enc.Progressive {
			opts.ProgressiveLevel = 2
		}
		if err := jpegli.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output codec: %s", enc.Codec)
	}

	return buf.Bytes(), nil
}
