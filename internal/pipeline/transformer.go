package pipeline

import (
	"context"
	"errors"
)

var (
	ErrSourceTooLarge = errors.New("source image exceeds pixel limit")

	errSmartSubsample = errors.New("smart chroma subsampling is not supported")
)

type TransformOptions struct {
	// Width is the bounding width; the output is never wider than the source.
	Width     int
	Encoding  Encoding
	MaxPixels int
}

type Rendered struct {
	Data   []byte
	Width  int
	Height int
}

// Transformer decodes, orients, resizes and re-encodes one image.
type Transformer interface {
	Transform(ctx context.Context, input []byte, opts TransformOptions) (Rendered, error)
}

// fitWidth returns the output size for a source of srcW x srcH that must fit
// inside width while keeping its aspect ratio. Sources narrower than width
// keep their size.
func fitWidth(srcW, srcH, width int) (int, int) {
	if srcW <= width {
		return srcW, srcH
	}
	h := (srcH*width + srcW/2) / srcW
	if h < 1 {
		h = 1
	}
	return width, h
}

func exceedsPixels(w, h, limit int) bool {
	return limit > 0 && int64(w)*int64(h) > int64(limit)
}
