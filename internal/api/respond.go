package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dunamismax/edgeresize/internal/pipeline"
)

const (
	msgNotFound        = "Image not found"
	msgProcessingError = "Image processing failed"
)

// Response is a transport-neutral HTTP response. The HTTP server and the
// Lambda adapter both render it.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Translator maps a pipeline outcome to a Response. It has no fallible
// operations of its own.
type Translator struct {
	cacheControl string
}

func NewTranslator(maxAge time.Duration) Translator {
	return Translator{
		cacheControl: "public, max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10),
	}
}

// ToResponse renders img when err is nil, otherwise the error body for err's
// kind. A kind outside the known set is a programming error and panics.
func (t Translator) ToResponse(img pipeline.TransformedImage, err error) Response {
	if err == nil {
		header := make(http.Header, 4)
		header.Set("Content-Type", img.MIMEType)
		header.Set("Cache-Control", t.cacheControl)
		header.Set("X-Resized-Width", strconv.Itoa(img.AppliedWidth))
		header.Set("Content-Length", strconv.Itoa(len(img.Bytes)))
		return Response{Status: http.StatusOK, Header: header, Body: img.Bytes}
	}

	switch kind := pipeline.KindOf(err); kind {
	case pipeline.KindInvalidInput:
		return errorResponse(http.StatusBadRequest, pipeline.MessageOf(err))
	case pipeline.KindNotFound:
		return errorResponse(http.StatusNotFound, msgNotFound)
	case pipeline.KindInternal:
		return errorResponse(http.StatusInternalServerError, msgProcessingError)
	default:
		panic(fmt.Sprintf("api: untranslatable error kind %s: %v", kind, err))
	}
}

func errorResponse(status int, message string) Response {
	return jsonResponse(status, map[string]string{"error": message})
}

func jsonResponse(status int, data any) Response {
	body, err := json.Marshal(data)
	if err != nil {
		// Only string maps reach here.
		panic(fmt.Sprintf("api: marshal response body: %v", err))
	}

	header := make(http.Header, 2)
	header.Set("Content-Type", "application/json")
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return Response{Status: status, Header: header, Body: body}
}

// write copies resp onto w. HEAD requests get headers only.
func (resp Response) write(w http.ResponseWriter, r *http.Request) {
	dst := w.Header()
	for key, values := range resp.Header {
		dst[key] = values
	}
	w.WriteHeader(resp.Status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(resp.Body)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	jsonResponse(status, data).write(w, r)
}
