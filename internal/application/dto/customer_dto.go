package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest cuerpo de POST /api/customers.
type CreateCustomerRequest struct {
	Name             string          `json:"name" validate:"required"`
	PhoneNumber      string          `json:"phoneNumber" validate:"required"`
	Email            string          `json:"email" validate:"omitempty,email"`
	Address          string          `json:"address" validate:"required"`
	Plan             string          `json:"plan" validate:"required"`
	InstallationDate string          `json:"installationDate" validate:"required"` // ISO-8601
	MonthlyFee       decimal.Decimal `json:"monthlyFee"`
}

// RecordPaymentRequest cuerpo de POST /api/customers/:id/payments.
// Amount vacío toma la cuota mensual del cliente (valor precargado del formulario).
type RecordPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Signature string           `json:"signature"`
}

// DisplayStatusDTO etiqueta de estado y su categoría visual.
type DisplayStatusDTO struct {
	Label    string `json:"label"`
	Category string `json:"category"`
}

// PaymentDTO pago en respuestas; la firma solo se incluye en el detalle.
type PaymentDTO struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	AmountLabel  string          `json:"amountLabel"`
	Signature    string          `json:"signature,omitempty"`
	HasSignature bool            `json:"hasSignature"`
}

// CustomerResponse cliente con estado de presentación e historial del más reciente al más antiguo.
type CustomerResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	PhoneNumber      string           `json:"phoneNumber"`
	Email            string           `json:"email,omitempty"`
	Address          string           `json:"address"`
	Plan             string           `json:"plan"`
	InstallationDate time.Time        `json:"installationDate"`
	MonthlyFee       decimal.Decimal  `json:"monthlyFee"`
	MonthlyFeeLabel  string           `json:"monthlyFeeLabel"`
	Status           string           `json:"status"`
	DisplayStatus    DisplayStatusDTO `json:"displayStatus"`
	NextPaymentDate  time.Time        `json:"nextPaymentDate"`
	PaymentHistory   []PaymentDTO     `json:"paymentHistory"`
}

// CustomerListResponse listado paginado de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
