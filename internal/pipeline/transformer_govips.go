//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type govipsTransformer struct{}

func (t govipsTransformer) Transform(ctx context.Context, input []byte, opts TransformOptions) (Rendered, error) {
	select {
	case <-ctx.Done():
		return Rendered{}, ctx.Err()
	default:
	}

	if opts.Width <= 0 {
		return Rendered{}, fmt.Errorf("resize requires width > 0")
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return Rendered{}, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if exceedsPixels(img.Width(), img.Height(), opts.MaxPixels) {
		return Rendered{}, fmt.Errorf("%w: %dx%d", ErrSourceTooLarge, img.Width(), img.Height())
	}

	if err := img.AutoRotate(); err != nil {
		return Rendered{}, fmt.Errorf("auto-rotate: %w", err)
	}

	if err := applyGovipsFit(img, opts.Width); err != nil {
		return Rendered{}, err
	}

	data, err := exportGovipsImage(img, opts.Encoding)
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{Data: data, Width: img.Width(), Height: img.Height()}, nil
}

func applyGovipsFit(img *vips.ImageRef, targetWidth int) error {
	if img.Width() <= 0 {
		return fmt.Errorf("source image has invalid width")
	}
	if img.Width() <= targetWidth {
		return nil
	}

	scale := float64(targetWidth) / float64(img.Width())
	if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}

func exportGovipsImage(img *vips.ImageRef, enc Encoding) ([]byte, error) {
	switch enc.Codec {
	case CodecWebP:
		// Lossy WebP is always 4:2:0 and libvips leaves smart subsampling off.
		if enc.SmartSubsample {
			return nil, errSmartSubsample
		}
		params := vips.NewWebpExportParams()
		params.StripMetadata = true
		params.Quality = enc.Quality
		params.ReductionEffort = enc.Effort
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	case CodecJPEG:
		params := vips.NewJpegExportParams()
		params.StripMetadata = true
		params.Quality = enc.Quality
		params.Interlace = enc.Progressive
		if enc.Optimize {
			// mozjpeg defaults; ignored when libvips is linked against plain libjpeg.
			params.OptimizeCoding = true
			params.TrellisQuant = true
			params.OvershootDeringing = true
			params.OptimizeScans = true
			params.QuantTable = 3
		}
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output codec: %s", enc.Codec)
	}
}
