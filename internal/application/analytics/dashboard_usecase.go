// Package analytics contiene las consultas de solo lectura sobre la colección de clientes:
// resumen del dashboard, búsqueda y vencimientos próximos.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/pkg/money"
)

const (
	dashboardRecentPayments = 5  // pagos en el widget "pagos recientes"
	newCustomerWindowDays   = 30 // ventana del widget "clientes nuevos"
	dashboardDueSoonDays    = 7
)

// CustomerLister fuente de clientes; la implementa billing.CustomerStore.
type CustomerLister interface {
	List() []*entity.Customer
}

// DashboardUseCase genera el resumen del dashboard a partir de una copia de la colección.
type DashboardUseCase struct {
	customers CustomerLister
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso. now puede ser nil (reloj real).
func NewDashboardUseCase(customers CustomerLister, now func() time.Time) *DashboardUseCase {
	if now == nil {
		now = time.Now
	}
	return &DashboardUseCase{customers: customers, now: now}
}

// GetSummary construye el DashboardSummaryDTO.
//
//  1. Ingresos del mes calendario en curso (fecha del pago, zona horaria de now).
//  2. Clientes activos: estado distinto de Overdue.
//  3. Últimos 5 pagos de cualquier cliente, del más reciente al más antiguo.
//  4. Clientes con fecha de instalación en los últimos 30 días.
//  5. Vencimientos de los próximos 7 días.
func (uc *DashboardUseCase) GetSummary() *dto.DashboardSummaryDTO {
	now := uc.now()
	customers := uc.customers.List()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)
	newSince := now.AddDate(0, 0, -newCustomerWindowDays)

	income := decimal.Zero
	active := 0
	recent := make([]dto.RecentPaymentDTO, 0)
	fresh := make([]dto.NewCustomerDTO, 0)

	for _, c := range customers {
		if c.Status != entity.StatusOverdue {
			active++
		}
		if !c.InstallationDate.Before(newSince) && !c.InstallationDate.After(now) {
			fresh = append(fresh, dto.NewCustomerDTO{
				CustomerID:       c.ID,
				Name:             c.Name,
				Plan:             c.Plan,
				InstallationDate: c.InstallationDate,
			})
		}
		for _, p := range c.PaymentHistory {
			if !p.Date.Before(monthStart) && p.Date.Before(nextMonth) {
				income = income.Add(p.Amount)
			}
			recent = append(recent, dto.RecentPaymentDTO{
				PaymentID:    p.ID,
				CustomerID:   c.ID,
				CustomerName: c.Name,
				Date:         p.Date,
				Amount:       p.Amount,
				AmountLabel:  money.FormatIDR(p.Amount),
			})
		}
	}

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > dashboardRecentPayments {
		recent = recent[:dashboardRecentPayments]
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].InstallationDate.After(fresh[j].InstallationDate) })

	return &dto.DashboardSummaryDTO{
		IncomeThisMonth:      income,
		IncomeThisMonthLabel: money.FormatIDR(income),
		ActiveCustomers:      active,
		TotalCustomers:       len(customers),
		RecentPayments:       recent,
		NewCustomers:         fresh,
		DueSoon:              DueSoon(customers, now, dashboardDueSoonDays),
		GeneratedAt:          now,
	}
}
