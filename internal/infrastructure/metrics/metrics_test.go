package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/metrics"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveOperation("create", nil, 10*time.Millisecond)
	m.ObserveOperation("create", nil, 5*time.Millisecond)
	m.ObserveOperation("delete", &domain.NotFoundError{ID: "x"}, time.Millisecond)
	m.ObserveOperation("update", &domain.PersistenceError{Op: "write", Err: errors.New("disk full")}, time.Millisecond)
	m.ObserveOperation("record_payment", &domain.InvalidPaymentError{Reason: "monto"}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("delete", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("update", "persistence_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("record_payment", "invalid")))
}

func TestMetrics_ExternalChangesAndGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveExternalChange(true)
	m.ObserveExternalChange(false)
	m.ObserveExternalChange(false)
	m.SetCustomers(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalChangesTotal.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExternalChangesTotal.WithLabelValues("false")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.CustomersTotal))
}

func TestMetrics_ObserveInsights(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveInsights("gemini", nil)
	m.ObserveInsights("gemini", &domain.CollaboratorError{Err: errors.New("timeout")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsRequestsTotal.WithLabelValues("gemini", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsRequestsTotal.WithLabelValues("gemini", "collaborator_error")))
}
