package entity

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/domain"
)

// CustomerStatus estado de cobro del cliente.
type CustomerStatus string

// Estados de cobro. Overdue solo se asigna por edición explícita.
const (
	StatusPending CustomerStatus = "Pending"
	StatusPaid    CustomerStatus = "Paid"
	StatusOverdue CustomerStatus = "Overdue"
)

// Valid indica si el valor pertenece a la enumeración.
func (s CustomerStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ParseCustomerStatus convierte texto libre (sin distinguir mayúsculas) en CustomerStatus.
func ParseCustomerStatus(s string) (CustomerStatus, error) {
	for _, st := range []CustomerStatus{StatusPending, StatusPaid, StatusOverdue} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", domain.NewValidationError("status", "debe ser Pending, Paid u Overdue")
}

// Customer representa un suscriptor del servicio de internet y su historial de cobro.
// Las etiquetas JSON son el formato persistido de la colección.
type Customer struct {
	ID               string          `json:"id" validate:"required"`
	Name             string          `json:"name" validate:"required"`
	PhoneNumber      string          `json:"phoneNumber" validate:"required"`
	Email            string          `json:"email,omitempty" validate:"omitempty,email"`
	Address          string          `json:"address" validate:"required"`
	Plan             string          `json:"plan" validate:"required"`
	InstallationDate time.Time       `json:"installationDate"`
	MonthlyFee       decimal.Decimal `json:"monthlyFee"`
	Status           CustomerStatus  `json:"status"`
	NextPaymentDate  time.Time       `json:"nextPaymentDate"`
	PaymentHistory   []Payment       `json:"paymentHistory"`
}

// CustomerInput datos de alta de un cliente (formulario).
type CustomerInput struct {
	Name             string          `json:"name" validate:"required"`
	PhoneNumber      string          `json:"phoneNumber" validate:"required"`
	Email            string          `json:"email,omitempty" validate:"omitempty,email"`
	Address          string          `json:"address" validate:"required"`
	Plan             string          `json:"plan" validate:"required"`
	InstallationDate time.Time       `json:"installationDate"`
	MonthlyFee       decimal.Decimal `json:"monthlyFee"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewCustomer construye un cliente recién dado de alta: Pending, sin historial.
// nextPaymentDate lo calcula el motor de cobro y se pasa ya resuelto.
func NewCustomer(id string, in CustomerInput, nextPaymentDate time.Time) (*Customer, error) {
	c := &Customer{
		ID:               id,
		Name:             strings.TrimSpace(in.Name),
		PhoneNumber:      strings.TrimSpace(in.PhoneNumber),
		Email:            strings.TrimSpace(in.Email),
		Address:          strings.TrimSpace(in.Address),
		Plan:             strings.TrimSpace(in.Plan),
		InstallationDate: in.InstallationDate,
		MonthlyFee:       in.MonthlyFee,
		Status:           StatusPending,
		NextPaymentDate:  nextPaymentDate,
		PaymentHistory:   []Payment{},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate comprueba las restricciones del modelo; devuelve *domain.ValidationError.
func (c *Customer) Validate() error {
	if err := validate.Struct(c); err != nil {
		return toValidationError(err)
	}
	if c.InstallationDate.IsZero() {
		return domain.NewValidationError("installationDate", "es obligatoria")
	}
	if c.NextPaymentDate.IsZero() {
		return domain.NewValidationError("nextPaymentDate", "es obligatoria")
	}
	if c.MonthlyFee.IsNegative() {
		return domain.NewValidationError("monthlyFee", "no puede ser negativa")
	}
	if !c.Status.Valid() {
		return domain.NewValidationError("status", "valor desconocido: "+string(c.Status))
	}
	seen := make(map[string]struct{}, len(c.PaymentHistory))
	for i := range c.PaymentHistory {
		p := &c.PaymentHistory[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return domain.NewValidationError("paymentHistory", "id de pago repetido: "+p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Clone copia profunda; el historial no comparte backing array con el original.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cp := *c
	cp.PaymentHistory = make([]Payment, len(c.PaymentHistory))
	copy(cp.PaymentHistory, c.PaymentHistory)
	return &cp
}

// SortedHistory historial de pagos del más reciente al más antiguo (orden de presentación).
func (c *Customer) SortedHistory() []Payment {
	out := make([]Payment, len(c.PaymentHistory))
	copy(out, c.PaymentHistory)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// FindPayment busca un pago por id dentro del historial.
func (c *Customer) FindPayment(paymentID string) (*Payment, bool) {
	for i := range c.PaymentHistory {
		if c.PaymentHistory[i].ID == paymentID {
			p := c.PaymentHistory[i]
			return &p, true
		}
	}
	return nil, false
}

// toValidationError traduce el primer error de go-playground/validator al error de dominio.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("entity", err.Error())
	}
	fe := verrs[0]
	field := jsonFieldName(fe.StructField())
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "es obligatorio")
	case "email":
		return domain.NewValidationError(field, "no es un email válido")
	default:
		return domain.NewValidationError(field, "no cumple la regla "+fe.Tag())
	}
}

// jsonFieldName pasa de PhoneNumber a phoneNumber para que los mensajes usen el nombre persistido.
func jsonFieldName(structField string) string {
	if structField == "" {
		return structField
	}
	if structField == "ID" {
		return "id"
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}
