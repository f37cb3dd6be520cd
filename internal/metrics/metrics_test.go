package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"catalog-import-service/internal/models"
)

func TestObserveReport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReport(&models.ImportReport{
		Success:         false,
		Imported:        2,
		Updated:         1,
		Failed:          1,
		VariantsCreated: 5,
		ImagesCreated:   3,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("partial")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Products.WithLabelValues("imported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Products.WithLabelValues("failed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Variants))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Images))
}

func TestObserveReport_AllFailed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReport(&models.ImportReport{Failed: 3})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("failed")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(&models.ImportReport{})
		m.ObservePreview("ok", 2)
		m.ObserveUpload(10)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObservePreview("ok", 4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_import_previews_total")
	assert.Contains(t, rec.Body.String(), "catalog_import_row_warnings_total 4")
}
