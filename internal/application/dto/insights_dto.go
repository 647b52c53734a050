package dto

// InsightsRequest cuerpo de POST /api/insights. Sin ids se analiza toda la colección.
type InsightsRequest struct {
	CustomerIDs []string `json:"customerIds,omitempty"`
}

// PaymentInsightsDTO respuesta del colaborador de análisis de pagos.
// ChurnRiskScore es opaco: se muestra tal cual lo devuelve el modelo.
type PaymentInsightsDTO struct {
	Summary        string              `json:"summary"`
	LatePayments   []LatePaymentDTO    `json:"latePayments"`
	PredictedChurn []ChurnPredictionDTO `json:"predictedChurn"`
}

// LatePaymentDTO cliente con pagos tardíos.
type LatePaymentDTO struct {
	CustomerID           string `json:"customerId"`
	NumberOfLatePayments int    `json:"numberOfLatePayments"`
}

// ChurnPredictionDTO riesgo de abandono estimado por cliente.
type ChurnPredictionDTO struct {
	CustomerID     string  `json:"customerId"`
	ChurnRiskScore float64 `json:"churnRiskScore"`
}
