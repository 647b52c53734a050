package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	// Suma de los pagos con fecha dentro del mes calendario en curso.
	IncomeThisMonth      decimal.Decimal `json:"incomeThisMonth"`
	IncomeThisMonthLabel string          `json:"incomeThisMonthLabel"`

	// Clientes cuyo estado no es Overdue.
	ActiveCustomers int `json:"activeCustomers"`
	TotalCustomers  int `json:"totalCustomers"`

	RecentPayments []RecentPaymentDTO `json:"recentPayments"`
	NewCustomers   []NewCustomerDTO   `json:"newCustomers"`
	DueSoon        []DueSoonDTO       `json:"dueSoon"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// RecentPaymentDTO pago reciente enriquecido con el cliente.
type RecentPaymentDTO struct {
	PaymentID    string          `json:"paymentId"`
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	AmountLabel  string          `json:"amountLabel"`
}

// NewCustomerDTO cliente instalado en los últimos 30 días.
type NewCustomerDTO struct {
	CustomerID       string    `json:"customerId"`
	Name             string    `json:"name"`
	Plan             string    `json:"plan"`
	InstallationDate time.Time `json:"installationDate"`
}

// DueSoonDTO cliente con vencimiento dentro de la ventana de aviso.
type DueSoonDTO struct {
	CustomerID      string          `json:"customerId"`
	Name            string          `json:"name"`
	PhoneNumber     string          `json:"phoneNumber"`
	NextPaymentDate time.Time       `json:"nextPaymentDate"`
	DaysLeft        int             `json:"daysLeft"`
	MonthlyFee      decimal.Decimal `json:"monthlyFee"`
	Status          string          `json:"status"`
}
