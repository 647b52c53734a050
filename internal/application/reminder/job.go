// Package reminder revisa periódicamente los vencimientos próximos y los registra en el log.
// Es solo informativo: no cambia el estado de ningún cliente (Overdue se marca a mano).
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Tagihan-api/internal/application/analytics"
	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/pkg/money"
)

// Notifier recibe los vencimientos de cada corrida. nil = solo log.
type Notifier func(due []dto.DueSoonDTO)

// Job programa la revisión con una expresión cron estándar de 5 campos.
type Job struct {
	customers analytics.CustomerLister
	daysAhead int
	now       func() time.Time
	notify    Notifier
	log       zerolog.Logger
	cron      *cron.Cron
}

// NewJob valida la expresión y registra la tarea; no arranca hasta Start.
func NewJob(customers analytics.CustomerLister, schedule string, daysAhead int, notify Notifier, log zerolog.Logger) (*Job, error) {
	if daysAhead < 0 {
		return nil, fmt.Errorf("reminder: daysAhead no puede ser negativo")
	}
	j := &Job{
		customers: customers,
		daysAhead: daysAhead,
		now:       time.Now,
		notify:    notify,
		log:       log.With().Str("component", "reminder").Logger(),
		cron:      cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("reminder: expresión cron inválida %q: %w", schedule, err)
	}
	return j, nil
}

// Start arranca el scheduler en su propia goroutine.
func (j *Job) Start() {
	j.cron.Start()
	j.log.Info().Int("days_ahead", j.daysAhead).Msg("revisión de vencimientos programada")
}

// Stop detiene el scheduler y espera la corrida en curso o a que ctx termine.
func (j *Job) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce ejecuta una revisión y devuelve lo encontrado.
func (j *Job) RunOnce() []dto.DueSoonDTO {
	due := analytics.DueSoon(j.customers.List(), j.now(), j.daysAhead)
	for _, d := range due {
		ev := j.log.Info()
		if d.DaysLeft < 0 {
			ev = j.log.Warn()
		}
		ev.Str("customer_id", d.CustomerID).
			Str("name", d.Name).
			Str("phone", d.PhoneNumber).
			Time("next_payment_date", d.NextPaymentDate).
			Int("days_left", d.DaysLeft).
			Str("fee", money.FormatIDR(d.MonthlyFee)).
			Msg("vencimiento próximo")
	}
	j.log.Debug().Int("count", len(due)).Msg("revisión de vencimientos completada")
	if j.notify != nil && len(due) > 0 {
		j.notify(due)
	}
	return due
}
