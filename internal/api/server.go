package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	healthzPath = "/healthz"
	readyzPath  = "/readyz"

	readyTimeout = 3 * time.Second
)

// ReadinessChecker reports whether the backing store can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

type Options struct {
	Logger      *zap.SugaredLogger
	Resize      *ResizeHandler
	Readiness   ReadinessChecker
	RateLimiter RateLimiter
	Metrics     *Metrics
}

type Server struct {
	logger      *zap.SugaredLogger
	resize      *ResizeHandler
	readiness   ReadinessChecker
	rateLimiter RateLimiter
	metrics     *Metrics
	tracer      trace.Tracer
	handler     http.Handler
}

func NewServer(opts Options) (*Server, error) {
	if opts.Resize == nil {
		return nil, errors.New("resize handler is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		logger:      logger,
		resize:      opts.Resize,
		readiness:   opts.Readiness,
		rateLimiter: opts.RateLimiter,
		metrics:     opts.Metrics,
		tracer:      otel.Tracer("edgeresize/api"),
	}
	s.handler = s.chain(http.HandlerFunc(s.route))
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) chain(h http.Handler) http.Handler {
	h = s.withRateLimit(h)
	h = s.withRecover(h)
	h = s.withTracing(h)
	h = s.metrics.withHTTPMetrics(h)
	h = s.withAccessLog(h)
	return withRequestID(h)
}

// route dispatches on the raw path. http.ServeMux is not used because it
// redirects paths containing ".." or "//", and those must reach the
// interpreter to be rejected as invalid keys.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case healthzPath:
		s.handleHealthz(w, r)
	case readyzPath:
		s.handleReadyz(w, r)
	default:
		s.handleResize(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.readiness.Ready(ctx); err != nil {
			s.logger.Warnw("readiness check failed",
				"request_id", RequestIDFromContext(r.Context()),
				"error", err,
			)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	s.resize.Serve(r.Context(), r.URL.EscapedPath(), r.URL.RawQuery).write(w, r)
}
