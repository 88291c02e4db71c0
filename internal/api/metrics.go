package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing, which
// is how the Lambda adapter runs.
type Metrics struct {
	registry          *prometheus.Registry
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	transformTotal    *prometheus.CounterVec
	sourceBytes       prometheus.Histogram
	outputBytes       prometheus.Histogram
	rateLimitRejected *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sizeBuckets := prometheus.ExponentialBuckets(4<<10, 4, 8)

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeresize_http_requests_total",
			Help: "Total HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edgeresize_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
		transformTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeresize_transforms_total",
			Help: "Resize invocations by requested format and outcome.",
		}, []string{"format", "outcome"}),
		sourceBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgeresize_source_bytes",
			Help:    "Size of fetched source objects.",
			Buckets: sizeBuckets,
		}),
		outputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgeresize_output_bytes",
			Help:    "Size of encoded outputs.",
			Buckets: sizeBuckets,
		}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeresize_rate_limit_rejections_total",
			Help: "Requests rejected by rate limiting.",
		}, []string{"route"}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.transformTotal,
		m.sourceBytes,
		m.outputBytes,
		m.rateLimitRejected,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) withHTTPMetrics(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := wrapRecorder(w)
		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		status := strconv.Itoa(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeTransform(format pipeline.Format, outcome string) {
	if m == nil {
		return
	}
	m.transformTotal.WithLabelValues(formatLabel(format), outcome).Inc()
}

func (m *Metrics) observeSizes(source, output int) {
	if m == nil {
		return
	}
	m.sourceBytes.Observe(float64(source))
	m.outputBytes.Observe(float64(output))
}

func (m *Metrics) rateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimitRejected.WithLabelValues(route).Inc()
}

// formatLabel keeps the label set bounded; callers may send any format string.
func formatLabel(f pipeline.Format) string {
	switch f {
	case pipeline.FormatAuto, pipeline.FormatWebP, pipeline.FormatJPEG, pipeline.FormatJPG, pipeline.FormatPNG:
		return string(f)
	case "":
		return "none"
	default:
		return "other"
	}
}

func routeLabel(path string) string {
	switch path {
	case healthzPath, readyzPath:
		return path
	default:
		return "/{key}"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

// wrapRecorder reuses an existing recorder so stacked middleware share one.
func wrapRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}
