package metrics

import (
	"strconv"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Histogram
	visitors    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cthulhu_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cthulhu_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cthulhu_uploads_total",
				Help: "Finished uploads by outcome",
			},
			[]string{"outcome"},
		),
		uploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cthulhu_upload_size_bytes",
				Help:    "Total size of successful uploads",
				Buckets: prometheus.ExponentialBuckets(1024, 10, 8),
			},
		),
		visitors: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cthulhu_visitors",
				Help: "Visitors holding an upload widget",
			},
		),
	}
}

// Middleware counts requests by matched route, not raw path, to keep session
// ids out of the label set.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		method := c.Method()

		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}

// ObserveUpload is a widget subscriber.
func (m *Metrics) ObserveUpload(st upload.State) {
	switch st := st.(type) {
	case upload.Succeeded:
		m.uploads.WithLabelValues(upload.KindSucceeded.String()).Inc()
		if st.Result != nil {
			m.uploadBytes.Observe(float64(st.Result.TotalSize))
		}
	case upload.Failed:
		m.uploads.WithLabelValues(upload.KindFailed.String()).Inc()
	}
}

func (m *Metrics) VisitorAdded()   { m.visitors.Inc() }
func (m *Metrics) VisitorRemoved() { m.visitors.Dec() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
