package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dunamismax/edgeresize/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher is the object store dependency. Implementations report a missing
// object with storage.ErrNotFound.
type Fetcher interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// TransformedImage is a successful result ready to be written to the client.
type TransformedImage struct {
	Bytes        []byte
	MIMEType     string
	AppliedWidth int

	// Diagnostics; not part of the response headers.
	Width       int
	Height      int
	SourceBytes int
	SourceType  string
	Codec       Codec
}

type Limits struct {
	MaxSourcePixels int
}

type Processor struct {
	fetcher     Fetcher
	transformer Transformer
	limits      Limits
	tracer      trace.Tracer
}

func NewProcessor(fetcher Fetcher, limits Limits) (*Processor, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	transformer, err := newTransformer()
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	return &Processor{
		fetcher:     fetcher,
		transformer: transformer,
		limits:      limits,
		tracer:      otel.Tracer("edgeresize/pipeline"),
	}, nil
}

// Execute fetches the source object and renders it. It makes exactly one
// attempt; every error is a *Error.
func (p *Processor) Execute(ctx context.Context, req TransformRequest) (TransformedImage, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.execute")
	span.SetAttributes(
		attribute.String("image.key", req.ObjectKey),
		attribute.Int("image.target_width", req.TargetWidth),
		attribute.String("image.format", string(req.OutputFormat)),
	)
	defer span.End()

	img, err := p.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return TransformedImage{}, err
	}

	span.SetAttributes(
		attribute.String("image.source_type", img.SourceType),
		attribute.Int("image.output_width", img.Width),
		attribute.Int("image.output_bytes", len(img.Bytes)),
	)
	span.SetStatus(codes.Ok, "rendered")
	return img, nil
}

func (p *Processor) execute(ctx context.Context, req TransformRequest) (TransformedImage, error) {
	source, err := p.fetch(ctx, req.ObjectKey)
	if err != nil {
		return TransformedImage{}, err
	}

	sourceType, ok := sniffSource(source)
	if !ok {
		return TransformedImage{}, Internal("unsupported source", fmt.Errorf("key=%s sniffed=%q", req.ObjectKey, sourceType))
	}

	enc := EncodingFor(req.OutputFormat)
	rendered, err := p.transform(ctx, source, TransformOptions{
		Width:     req.TargetWidth,
		Encoding:  enc,
		MaxPixels: p.limits.MaxSourcePixels,
	})
	if err != nil {
		return TransformedImage{}, err
	}

	return TransformedImage{
		Bytes:        rendered.Data,
		MIMEType:     req.OutputFormat.ContentType(),
		AppliedWidth: req.TargetWidth,
		Width:        rendered.Width,
		Height:       rendered.Height,
		SourceBytes:  len(source),
		SourceType:   sourceType,
		Codec:        enc.Codec,
	}, nil
}

func (p *Processor) fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fetch")
	defer span.End()

	data, err := p.fetcher.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NotFound("Image not found", err)
		}
		return nil, Internal("fetch source", err)
	}

	span.SetAttributes(attribute.Int("image.source_bytes", len(data)))
	return data, nil
}

func (p *Processor) transform(ctx context.Context, source []byte, opts TransformOptions) (Rendered, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.transform")
	span.SetAttributes(attribute.String("image.codec", opts.Encoding.Codec.String()))
	defer span.End()

	rendered, err := p.transformer.Transform(ctx, source, opts)
	if err != nil {
		span.RecordError(err)
		return Rendered{}, Internal("transform source", err)
	}
	return rendered, nil
}
