package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// LambdaHandler serves the resizer behind an AWS Lambda Function URL.
type LambdaHandler struct {
	resize *ResizeHandler
	logger *zap.SugaredLogger
}

func NewLambdaHandler(resize *ResizeHandler, logger *zap.SugaredLogger) (*LambdaHandler, error) {
	if resize == nil {
		return nil, errors.New("resize handler is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LambdaHandler{resize: resize, logger: logger}, nil
}

// Handle never returns an error: every failure is already an HTTP response.
func (h *LambdaHandler) Handle(ctx context.Context, req events.LambdaFunctionURLRequest) (resp events.LambdaFunctionURLResponse, err error) {
	id := req.RequestContext.RequestID
	ctx = WithRequestID(ctx, id)

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Errorw("handler panic", "request_id", id, "panic", rec)
			resp = lambdaResponse(errorResponse(http.StatusInternalServerError, msgProcessingError), false)
			err = nil
		}
	}()

	out := h.resize.Serve(ctx, req.RawPath, req.RawQueryString)
	out.Header.Set(requestIDHeader, id)

	head := strings.EqualFold(req.RequestContext.HTTP.Method, http.MethodHead)
	h.logger.Infow("request",
		"request_id", id,
		"method", req.RequestContext.HTTP.Method,
		"path", req.RawPath,
		"status", out.Status,
		"bytes", len(out.Body),
	)
	return lambdaResponse(out, head), nil
}

// lambdaResponse base64-encodes image bodies; JSON error bodies are sent as text.
func lambdaResponse(out Response, head bool) events.LambdaFunctionURLResponse {
	headers := make(map[string]string, len(out.Header))
	for key := range out.Header {
		if key == "Content-Length" {
			continue
		}
		headers[key] = out.Header.Get(key)
	}

	resp := events.LambdaFunctionURLResponse{
		StatusCode: out.Status,
		Headers:    headers,
	}
	switch {
	case head:
	case out.Status == http.StatusOK:
		resp.Body = base64.StdEncoding.EncodeToString(out.Body)
		resp.IsBase64Encoded = true
	default:
		resp.Body = string(out.Body)
	}
	return resp
}
