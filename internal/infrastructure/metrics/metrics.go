// Package metrics expone las métricas Prometheus del almacén de clientes y de la API HTTP.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/domain"
)

var _ billing.StoreMetrics = (*Metrics)(nil)

// Metrics agrupa los colectores registrados en un registry propio.
type Metrics struct {
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	ExternalChangesTotal   *prometheus.CounterVec
	CustomersTotal         prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InsightsRequestsTotal *prometheus.CounterVec
}

// New crea y registra todos los colectores en registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagihan_store_operations_total",
				Help: "Operaciones del almacén de clientes por resultado",
			},
			[]string{"operation", "result"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagihan_store_operation_duration_seconds",
				Help:    "Duración de las operaciones del almacén (incluye la escritura en el medio)",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ExternalChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagihan_store_external_changes_total",
				Help: "Avisos de cambio del medio; changed=false cuando el contenido era el mismo",
			},
			[]string{"changed"},
		),
		CustomersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tagihan_customers",
			Help: "Clientes en la colección actual",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagihan_http_requests_total",
				Help: "Peticiones HTTP",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagihan_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InsightsRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagihan_insights_requests_total",
				Help: "Solicitudes de análisis al colaborador externo por proveedor y resultado",
			},
			[]string{"provider", "result"},
		),
	}

	registry.MustRegister(
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.ExternalChangesTotal,
		m.CustomersTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InsightsRequestsTotal,
	)
	return m
}

// ObserveOperation implementa billing.StoreMetrics.
func (m *Metrics) ObserveOperation(op string, err error, elapsed time.Duration) {
	m.StoreOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	m.StoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveExternalChange implementa billing.StoreMetrics.
func (m *Metrics) ObserveExternalChange(changed bool) {
	m.ExternalChangesTotal.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// SetCustomers implementa billing.StoreMetrics.
func (m *Metrics) SetCustomers(n int) {
	m.CustomersTotal.Set(float64(n))
}

// ObserveInsights cuenta una solicitud de análisis.
func (m *Metrics) ObserveInsights(provider string, err error) {
	m.InsightsRequestsTotal.WithLabelValues(provider, resultLabel(err)).Inc()
}

// Middleware mide cada petición fiber usando la ruta registrada (no la URL) como etiqueta.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		route := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// resultLabel reduce el error a una etiqueta de cardinalidad fija.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPayment), errors.Is(err, domain.ErrMalformedDate):
		return "invalid"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, domain.ErrCollaborator):
		return "collaborator_error"
	default:
		return "error"
	}
}
