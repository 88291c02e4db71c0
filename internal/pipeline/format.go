package pipeline

import "strings"

// Format is the caller-supplied output format. Any string is accepted; values
// outside the known set fall back to the JPEG encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatJPG  Format = "jpg"
	FormatPNG  Format = "png"
)

func ParseFormat(raw string) Format {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return FormatAuto
	}
	return Format(raw)
}

// ContentType is the declared MIME type for the format. Note that it does not
// always match the encoder: png and unknown formats are encoded as JPEG.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP, FormatAuto:
		return "image/webp"
	case FormatJPEG, FormatJPG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "image/webp"
	}
}

type Codec int

const (
	CodecJPEG Codec = iota
	CodecWebP
)

func (c Codec) String() string {
	if c == CodecWebP {
		return "webp"
	}
	return "jpeg"
}

const (
	outputQuality = 90
	webpEffort    = 6
)

// Encoding holds the encoder settings for one request.
type Encoding struct {
	Codec   Codec
	Quality int

	// WebP only. Effort ranges 0 (fast) to 6 (smallest output).
	Effort int
	// SmartSubsample stays false: chroma is subsampled the plain 4:2:0 way.
	// Neither engine can turn it on, so a true value fails the encode.
	SmartSubsample bool

	// JPEG only.
	Progressive bool
	Optimize    bool
}

func EncodingFor(f Format) Encoding {
	switch f {
	case FormatWebP, FormatAuto:
		return Encoding{
			Codec:   CodecWebP,
			Quality: outputQuality,
			Effort:  webpEffort,
		}
	default:
		return Encoding{
			Codec:       CodecJPEG,
			Quality:     outputQuality,
			Progressive: true,
			Optimize:    true,
		}
	}
}
