package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/application/usecase"
)

// InsightsHandler maneja el análisis de pagos asistido por IA.
type InsightsHandler struct {
	uc *usecase.InsightsUseCase
}

// NewInsightsHandler construye el handler.
func NewInsightsHandler(uc *usecase.InsightsUseCase) *InsightsHandler {
	return &InsightsHandler{uc: uc}
}

// Generate godoc
// @Summary      Analizar pagos con IA
// @Description  Envía el historial de pagos al modelo y devuelve resumen, pagos tardíos y riesgo de baja.
//               Sin customerIds se analizan todos los clientes. El resultado no se guarda.
// @Tags         insights
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InsightsRequest  false  "customerIds (opcional)"
// @Success      200   {object}  dto.PaymentInsightsDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/insights [post]
func (h *InsightsHandler) Generate(c *fiber.Ctx) error {
	var req dto.InsightsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Generate(c.UserContext(), req.CustomerIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
