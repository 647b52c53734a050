package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Tagihan-api/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del panel principal.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen del mes en curso.
// GET /api/dashboard/summary
//
// Respuesta: DashboardSummaryDTO (incomeThisMonth, activeCustomers, recentPayments[5],
// newCustomers de los últimos 30 días, dueSoon de los próximos 7 días).
// Las fechas se calculan en el servidor.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(h.uc.GetSummary())
}
