package pipeline

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dunamismax/edgeresize/internal/config"
)

const defaultWidth = 800

// TransformRequest is a validated resize request. TargetWidth is always a
// member of the interpreter's allow-list.
type TransformRequest struct {
	ObjectKey    string
	TargetWidth  int
	OutputFormat Format
}

// Interpreter turns an untrusted path and query into a TransformRequest.
type Interpreter struct {
	widths config.AllowedWidths
}

func NewInterpreter(widths config.AllowedWidths) *Interpreter {
	return &Interpreter{widths: widths}
}

// Parse validates rawPath (percent-encoded, e.g. "/photos/a%20b.jpg") and
// rawQuery. Every failure is KindInvalidInput.
func (in *Interpreter) Parse(rawPath, rawQuery string) (TransformRequest, error) {
	key, err := objectKeyFromPath(rawPath)
	if err != nil {
		return TransformRequest{}, err
	}

	// url.ParseQuery returns whatever it could parse alongside the error;
	// malformed pairs are ignored the same way a browser would.
	params, _ := url.ParseQuery(rawQuery)

	width := defaultWidth
	if raw := strings.TrimSpace(params.Get("width")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return TransformRequest{}, in.invalidWidth()
		}
		width = parsed
	}
	if !in.widths.Contains(width) {
		return TransformRequest{}, in.invalidWidth()
	}

	return TransformRequest{
		ObjectKey:    key,
		TargetWidth:  width,
		OutputFormat: ParseFormat(params.Get("format")),
	}, nil
}

func (in *Interpreter) invalidWidth() *Error {
	return InvalidInput(fmt.Sprintf("Invalid width. Allowed: %s", in.widths))
}

func objectKeyFromPath(rawPath string) (string, error) {
	unescaped, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", InvalidInput("Invalid S3 key")
	}

	key := strings.TrimPrefix(unescaped, "/")
	if key == "" {
		return "", InvalidInput("S3 key is required")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.ContainsRune(key, 0) {
		return "", InvalidInput("Invalid S3 key")
	}
	return key, nil
}
