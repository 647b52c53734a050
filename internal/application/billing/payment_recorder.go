package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/cycle"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// PaymentRecorder aplica un pago a un cliente y devuelve el cliente resultante.
// No persiste: el resultado se entrega al almacén como una única escritura.
type PaymentRecorder struct {
	now   func() time.Time
	newID func() string
}

// NewPaymentRecorder construye el registrador. now y newID pueden ser nil (reloj real, uuid v4).
func NewPaymentRecorder(now func() time.Time, newID func() string) *PaymentRecorder {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	return &PaymentRecorder{now: now, newID: newID}
}

// RecordPayment valida las precondiciones y construye el cliente actualizado:
// pago nuevo al final del historial, estado Paid y próxima fecha avanzada un mes.
// El cliente de entrada no se modifica, ni siquiera cuando hay error.
func (r *PaymentRecorder) RecordPayment(c *entity.Customer, amount decimal.Decimal, signature string) (*entity.Customer, error) {
	if c == nil {
		return nil, domain.NewValidationError("customer", "es obligatorio")
	}
	if !amount.IsPositive() {
		return nil, &domain.InvalidPaymentError{Reason: "el monto debe ser mayor que cero"}
	}
	if strings.TrimSpace(signature) == "" {
		return nil, &domain.InvalidPaymentError{Reason: "la firma es obligatoria"}
	}

	next, err := cycle.ComputeNextPaymentDate(c.NextPaymentDate)
	if err != nil {
		return nil, err
	}
	payment, err := entity.NewPayment(r.newID(), r.now(), amount, signature)
	if err != nil {
		return nil, err
	}

	out := c.Clone()
	out.PaymentHistory = append(out.PaymentHistory, *payment)
	out.Status = entity.StatusPaid
	out.NextPaymentDate = next
	return out, nil
}

// SuggestedPaymentAmount monto con el que se precarga el formulario de pago: la cuota mensual.
func SuggestedPaymentAmount(c *entity.Customer) decimal.Decimal {
	return c.MonthlyFee
}
