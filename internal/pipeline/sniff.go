package pipeline

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

var supportedSources = map[types.Type]bool{
	matchers.TypeJpeg: true,
	matchers.TypePng:  true,
	matchers.TypeWebp: true,
	matchers.TypeGif:  true,
	matchers.TypeBmp:  true,
	matchers.TypeTiff: true,
}

// sniffSource returns the MIME type of a supported source image based on its
// magic number, or ok=false when the bytes are not a decodable image.
func sniffSource(data []byte) (mime string, ok bool) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	if !supportedSources[kind] {
		return kind.MIME.Value, false
	}
	return kind.MIME.Value, true
}
