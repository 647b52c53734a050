package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
)

// userPrompt arma el mensaje del usuario con el historial ya formateado.
func userPrompt(customerPaymentHistory string) string {
	return "Analyze the following customer payment history and provide a summary of insights, " +
		"including potential late payments and predicted churn.\n\nPayment History: " + customerPaymentHistory
}

// insightsPayload es el JSON que esperamos recibir del modelo.
type insightsPayload struct {
	Summary      string `json:"summary"`
	LatePayments []struct {
		CustomerID           string  `json:"customerId"`
		NumberOfLatePayments float64 `json:"numberOfLatePayments"`
	} `json:"latePayments"`
	PredictedChurn []struct {
		CustomerID     string  `json:"customerId"`
		ChurnRiskScore float64 `json:"churnRiskScore"`
	} `json:"predictedChurn"`
}

// parseInsights convierte el texto del modelo en el DTO. Entradas sin customerId se descartan;
// el puntaje de churn se entrega sin reinterpretar.
func parseInsights(rawText string) (*dto.PaymentInsightsDTO, error) {
	clean := extractJSON(rawText)
	if clean == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var p insightsPayload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("AI: respuesta del modelo no es JSON válido: %w (JSON extraído: %s)", err, clean)
	}

	out := &dto.PaymentInsightsDTO{
		Summary:        strings.TrimSpace(p.Summary),
		LatePayments:   make([]dto.LatePaymentDTO, 0, len(p.LatePayments)),
		PredictedChurn: make([]dto.ChurnPredictionDTO, 0, len(p.PredictedChurn)),
	}
	for _, lp := range p.LatePayments {
		if lp.CustomerID == "" {
			continue
		}
		n := int(lp.NumberOfLatePayments)
		if n < 0 {
			n = 0
		}
		out.LatePayments = append(out.LatePayments, dto.LatePaymentDTO{CustomerID: lp.CustomerID, NumberOfLatePayments: n})
	}
	for _, pc := range p.PredictedChurn {
		if pc.CustomerID == "" {
			continue
		}
		out.PredictedChurn = append(out.PredictedChurn, dto.ChurnPredictionDTO{CustomerID: pc.CustomerID, ChurnRiskScore: pc.ChurnRiskScore})
	}
	return out, nil
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el primer objeto JSON de un texto libre.
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}
