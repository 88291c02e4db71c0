package api

import (
	"context"
	"errors"
	"time"

	"github.com/dunamismax/edgeresize/internal/pipeline"
	"go.uber.org/zap"
)

type executor interface {
	Execute(ctx context.Context, req pipeline.TransformRequest) (pipeline.TransformedImage, error)
}

// ResizeHandler runs one resize invocation: interpret, execute, translate.
// It is shared by the HTTP server and the Lambda adapter.
type ResizeHandler struct {
	interpreter *pipeline.Interpreter
	processor   executor
	translator  Translator
	logger      *zap.SugaredLogger
	metrics     *Metrics
}

func NewResizeHandler(interpreter *pipeline.Interpreter, processor executor, translator Translator, logger *zap.SugaredLogger, metrics *Metrics) (*ResizeHandler, error) {
	if interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &ResizeHandler{
		interpreter: interpreter,
		processor:   processor,
		translator:  translator,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

func (h *ResizeHandler) Serve(ctx context.Context, rawPath, rawQuery string) Response {
	req, err := h.interpreter.Parse(rawPath, rawQuery)
	if err != nil {
		h.metrics.observeTransform("", pipeline.KindOf(err).String())
		h.logger.Debugw("rejected request",
			"request_id", RequestIDFromContext(ctx),
			"path", rawPath,
			"reason", pipeline.MessageOf(err),
		)
		return h.translator.ToResponse(pipeline.TransformedImage{}, err)
	}

	start := time.Now()
	img, err := h.processor.Execute(ctx, req)
	if err != nil {
		kind := pipeline.KindOf(err)
		h.metrics.observeTransform(req.OutputFormat, kind.String())
		if kind == pipeline.KindInternal {
			h.logger.Errorw("transform failed",
				"request_id", RequestIDFromContext(ctx),
				"key", req.ObjectKey,
				"width", req.TargetWidth,
				"format", string(req.OutputFormat),
				"error", err,
			)
		}
		return h.translator.ToResponse(pipeline.TransformedImage{}, err)
	}

	h.metrics.observeTransform(req.OutputFormat, "ok")
	h.metrics.observeSizes(img.SourceBytes, len(img.Bytes))
	h.logger.Debugw("transformed",
		"request_id", RequestIDFromContext(ctx),
		"key", req.ObjectKey,
		"source_type", img.SourceType,
		"codec", img.Codec.String(),
		"width", img.Width,
		"height", img.Height,
		"bytes", len(img.Bytes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return h.translator.ToResponse(img, nil)
}
