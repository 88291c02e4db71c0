package pipeline

import "testing"

func TestContentTypeTable(t *testing.T) {
	cases := map[Format]string{
		FormatWebP:      "image/webp",
		FormatAuto:      "image/webp",
		FormatJPEG:      "image/jpeg",
		FormatJPG:       "image/jpeg",
		FormatPNG:       "image/png",
		Format("avif"):  "image/webp",
		Format("bogus"): "image/webp",
	}
	for format, want := range cases {
		if got := format.ContentType(); got != want {
			t.Fatalf("%s: expected %s, got %s", format, want, got)
		}
	}
}

func TestEncodingFor(t *testing.T) {
	for _, f := range []Format{FormatWebP, FormatAuto} {
		enc := EncodingFor(f)
		if enc.Codec != CodecWebP || enc.Quality != 90 || enc.Effort != 6 || enc.SmartSubsample {
			t.Fatalf("%s: unexpected webp encoding %+v", f, enc)
		}
	}

	for _, f := range []Format{FormatJPEG, FormatJPG, FormatPNG, Format("gif")} {
		enc := EncodingFor(f)
		if enc.Codec != CodecJPEG || enc.Quality != 90 || !enc.Progressive || !enc.Optimize {
			t.Fatalf("%s: unexpected jpeg encoding %+v", f, enc)
		}
	}
}

func TestParseFormatNormalizes(t *testing.T) {
	if got := ParseFormat("  WebP "); got != FormatWebP {
		t.Fatalf("expected webp, got %s", got)
	}
	if got := ParseFormat(""); got != FormatAuto {
		t.Fatalf("expected auto, got %s", got)
	}
}

func TestFitWidth(t *testing.T) {
	cases := []struct {
		srcW, srcH, width int
		wantW, wantH      int
	}{
		{3000, 2000, 800, 800, 533},
		{150, 100, 200, 150, 100},
		{800, 600, 800, 800, 600},
		{4000, 1, 200, 200, 1},
		{1001, 1000, 1000, 1000, 999},
	}
	for _, tc := range cases {
		w, h := fitWidth(tc.srcW, tc.srcH, tc.width)
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("fit %dx%d into %d: expected %dx%d, got %dx%d", tc.srcW, tc.srcH, tc.width, tc.wantW, tc.wantH, w, h)
		}
	}
}
