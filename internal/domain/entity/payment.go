package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/domain"
)

// Payment pago registrado contra el historial de un cliente. Inmutable tras su creación.
// Signature es la prueba de pago opaca (data URL de la imagen de la firma).
type Payment struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Signature string          `json:"signature,omitempty"`
}

// NewPayment construye un pago validado. La regla de negocio (monto > 0, firma obligatoria)
// la aplica el registrador de pagos; aquí solo se exige un pago bien formado.
func NewPayment(id string, date time.Time, amount decimal.Decimal, signature string) (*Payment, error) {
	p := &Payment{ID: id, Date: date, Amount: amount, Signature: signature}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate id no vacío, fecha presente, monto no negativo.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return domain.NewValidationError("payment.id", "es obligatorio")
	}
	if p.Date.IsZero() {
		return domain.NewValidationError("payment.date", "es obligatoria")
	}
	if p.Amount.IsNegative() {
		return domain.NewValidationError("payment.amount", "no puede ser negativo")
	}
	return nil
}
