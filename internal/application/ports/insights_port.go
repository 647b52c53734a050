package ports

import (
	"context"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
)

// InsightsService define el puerto de salida hacia el colaborador externo de análisis de pagos.
// Cualquier adaptador (Gemini, Anthropic, mock) debe implementar esta interfaz.
// La aplicación solo conoce este contrato: envía el historial como texto y recibe
// el resumen estructurado. El colaborador nunca modifica clientes.
type InsightsService interface {
	// GeneratePaymentInsights analiza el historial de pagos ya formateado.
	// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
	GeneratePaymentInsights(ctx context.Context, customerPaymentHistory string) (*dto.PaymentInsightsDTO, error)

	// Provider nombre corto del proveedor (gemini, anthropic) para logs y métricas.
	Provider() string
}
