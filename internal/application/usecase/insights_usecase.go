package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/application/ports"
	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// DefaultInsightsTimeout límite por defecto de una llamada al colaborador.
const DefaultInsightsTimeout = 30 * time.Second

// CustomerLister fuente de clientes a analizar; la implementa billing.CustomerStore.
type CustomerLister interface {
	List() []*entity.Customer
}

// InsightsMetrics observador opcional de las llamadas al colaborador.
type InsightsMetrics interface {
	ObserveInsights(provider string, err error)
}

// InsightsResult resultado de GenerateAsync.
type InsightsResult struct {
	Insights *dto.PaymentInsightsDTO
	Err      error
}

// InsightsUseCase orquesta el análisis de pagos asistido por IA. Solo lee clientes:
// el resultado nunca se escribe en el almacén.
type InsightsUseCase struct {
	svc       ports.InsightsService
	customers CustomerLister
	timeout   time.Duration
	metrics   InsightsMetrics
	log       zerolog.Logger
}

// NewInsightsUseCase construye el caso de uso. timeout <= 0 usa DefaultInsightsTimeout; metrics puede ser nil.
func NewInsightsUseCase(
	svc ports.InsightsService,
	customers CustomerLister,
	timeout time.Duration,
	metrics InsightsMetrics,
	log zerolog.Logger,
) *InsightsUseCase {
	if timeout <= 0 {
		timeout = DefaultInsightsTimeout
	}
	return &InsightsUseCase{
		svc:       svc,
		customers: customers,
		timeout:   timeout,
		metrics:   metrics,
		log:       log.With().Str("component", "insights").Str("provider", svc.Provider()).Logger(),
	}
}

// Generate analiza los clientes indicados (todos si ids está vacío).
// Errores del colaborador (incluido timeout o cancelación) se devuelven como *domain.CollaboratorError.
func (uc *InsightsUseCase) Generate(ctx context.Context, ids []string) (*dto.PaymentInsightsDTO, error) {
	customers, err := uc.selectCustomers(ids)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	result, err := uc.svc.GeneratePaymentInsights(ctx, FormatPaymentHistory(customers))
	if err == nil && result == nil {
		err = errors.New("respuesta vacía")
	}
	if uc.metrics != nil {
		uc.metrics.ObserveInsights(uc.svc.Provider(), wrapCollaborator(err))
	}
	if err != nil {
		uc.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Int("customers", len(customers)).Msg("análisis de pagos fallido")
		return nil, wrapCollaborator(err)
	}
	uc.log.Info().Dur("elapsed", time.Since(start)).Int("customers", len(customers)).Msg("análisis de pagos generado")
	return result, nil
}

// GenerateAsync lanza Generate en otra goroutine. El canal entrega exactamente un resultado
// y se cierra; cancel abandona la llamada (el resultado llega entonces con error).
func (uc *InsightsUseCase) GenerateAsync(ctx context.Context, ids []string) (<-chan InsightsResult, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan InsightsResult, 1)
	go func() {
		defer close(out)
		res, err := uc.Generate(ctx, ids)
		out <- InsightsResult{Insights: res, Err: err}
	}()
	return out, cancel
}

func (uc *InsightsUseCase) selectCustomers(ids []string) ([]*entity.Customer, error) {
	all := uc.customers.List()
	if len(ids) == 0 {
		if len(all) == 0 {
			return nil, domain.NewValidationError("customers", "no hay clientes para analizar")
		}
		return all, nil
	}
	byID := make(map[string]*entity.Customer, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	out := make([]*entity.Customer, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, &domain.NotFoundError{ID: id}
		}
		out = append(out, c)
	}
	return out, nil
}

// FormatPaymentHistory serializa el historial en el formato de texto que espera el colaborador:
//
//	Customer ID: <id>, Name: <name>, Payments: [Date: <iso>, Amount: <monto>], ...
//
// un cliente por segmento, separados por "; ". Sin pagos: "No payments recorded".
func FormatPaymentHistory(customers []*entity.Customer) string {
	parts := make([]string, 0, len(customers))
	for _, c := range customers {
		payments := make([]string, 0, len(c.PaymentHistory))
		for _, p := range c.PaymentHistory {
			payments = append(payments, fmt.Sprintf("[Date: %s, Amount: %s]",
				p.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"), p.Amount.String()))
		}
		history := strings.Join(payments, ", ")
		if history == "" {
			history = "No payments recorded"
		}
		parts = append(parts, fmt.Sprintf("Customer ID: %s, Name: %s, Payments: %s", c.ID, c.Name, history))
	}
	return strings.Join(parts, "; ")
}

func wrapCollaborator(err error) error {
	if err == nil {
		return nil
	}
	var ce *domain.CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &domain.CollaboratorError{Err: err}
}
