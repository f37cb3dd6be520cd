package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalog-import-service/internal/models"
)

const namespace = "catalog_import"

// Metrics holds the import pipeline collectors
type Metrics struct {
	registry prometheus.Gatherer

	Imports     *prometheus.CounterVec
	Products    *prometheus.CounterVec
	Variants    prometheus.Counter
	Images      prometheus.Counter
	Previews    *prometheus.CounterVec
	RowWarnings prometheus.Counter
	Duration    *prometheus.HistogramVec
	Uploads     prometheus.Histogram
}

// New registers the collectors on reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Committed import runs by outcome.",
		}, []string{"outcome"}),
		Products: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_total",
			Help:      "Products processed by result.",
		}, []string{"result"}),
		Variants: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_created_total",
			Help:      "Variants written by imports.",
		}),
		Images: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_created_total",
			Help:      "Images written by imports.",
		}),
		Previews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Preview requests by outcome.",
		}, []string{"outcome"}),
		RowWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_warnings_total",
			Help:      "Row warnings raised while assembling products.",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Pipeline stage duration.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
		Uploads: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of uploaded import files.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
}

// NewDefault registers on a fresh registry with the Go and process collectors
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// ObservePreview counts a preview request
func (m *Metrics) ObservePreview(outcome string, rowWarnings int) {
	if m == nil {
		return
	}
	m.Previews.WithLabelValues(outcome).Inc()
	m.RowWarnings.Add(float64(rowWarnings))
}

// ObserveUpload records an uploaded file size
func (m *Metrics) ObserveUpload(size int64) {
	if m == nil {
		return
	}
	m.Uploads.Observe(float64(size))
}

// ObserveReport folds a reconciler report into the counters
func (m *Metrics) ObserveReport(report *models.ImportReport) {
	if m == nil || report == nil {
		return
	}
	outcome := "success"
	if !report.Success {
		outcome = "partial"
		if report.Imported+report.Updated == 0 {
			outcome = "failed"
		}
	}
	m.Imports.WithLabelValues(outcome).Inc()
	m.Products.WithLabelValues("imported").Add(float64(report.Imported))
	m.Products.WithLabelValues("updated").Add(float64(report.Updated))
	m.Products.WithLabelValues("failed").Add(float64(report.Failed))
	m.Products.WithLabelValues("skipped").Add(float64(report.Skipped))
	m.Variants.Add(float64(report.VariantsCreated))
	m.Images.Add(float64(report.ImagesCreated))
}
