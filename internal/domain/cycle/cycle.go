// Package cycle contiene el motor de ciclo de cobro: aritmética de meses para la
// próxima fecha de pago y la proyección del estado a etiqueta visible.
// Funciones puras, sin efectos laterales.
//
// Regla de calendario (única, aplicada en el alta y en cada pago):
//
//	AddMonths(t, n) = mismo día n meses después; si ese día no existe en el mes destino
//	se usa el último día válido del mes (31-ene + 1 → 28/29-feb).
//
// La hora del día y la zona horaria de t se conservan.
package cycle

import (
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// isoLayouts formatos ISO-8601 aceptados, del más al menos específico.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// AddMonths avanza n meses de calendario con recorte al último día válido.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// FirstPaymentDate primera fecha de cobro: instalación + 1 mes.
func FirstPaymentDate(installationDate time.Time) (time.Time, error) {
	if installationDate.IsZero() {
		return time.Time{}, &domain.MalformedDateError{Input: "installationDate vacía"}
	}
	return AddMonths(installationDate, 1), nil
}

// ComputeNextPaymentDate avanza exactamente un mes la fecha de cobro vigente.
func ComputeNextPaymentDate(current time.Time) (time.Time, error) {
	if current.IsZero() {
		return time.Time{}, &domain.MalformedDateError{Input: "nextPaymentDate vacía"}
	}
	return AddMonths(current, 1), nil
}

// ComputeNextPaymentDateISO igual que ComputeNextPaymentDate pero desde texto ISO-8601.
func ComputeNextPaymentDateISO(current string) (time.Time, error) {
	t, err := ParseDate(current)
	if err != nil {
		return time.Time{}, err
	}
	return ComputeNextPaymentDate(t)
}

// ExpectedNextPaymentDate instalación + (1 + paymentCount) meses en un solo salto.
// Coincide con avanzar mes a mes cuando el día de instalación es <= 28; con días 29–31
// el avance mes a mes conserva el recorte (31-ene → 29-feb → 29-mar).
func ExpectedNextPaymentDate(installationDate time.Time, paymentCount int) time.Time {
	return AddMonths(installationDate, 1+paymentCount)
}

// ParseDate interpreta una fecha ISO-8601 (RFC 3339, sin zona, o solo fecha).
// Nunca corrige la entrada: si no se reconoce devuelve *domain.MalformedDateError.
func ParseDate(s string) (time.Time, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return time.Time{}, &domain.MalformedDateError{Input: s, Err: errors.New("vacía")}
	}
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, in)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &domain.MalformedDateError{Input: s, Err: lastErr}
}

// Category categoría visual del estado.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryDanger  Category = "danger"
)

// DisplayStatus etiqueta y categoría visual de un estado.
type DisplayStatus struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// DeriveDisplayStatus proyecta el estado almacenado a su etiqueta; no infiere mora por tiempo.
func DeriveDisplayStatus(c *entity.Customer) DisplayStatus {
	switch c.Status {
	case entity.StatusPaid:
		return DisplayStatus{Label: "Lunas", Category: CategorySuccess}
	case entity.StatusOverdue:
		return DisplayStatus{Label: "Jatuh Tempo", Category: CategoryDanger}
	default:
		return DisplayStatus{Label: "Belum Dibayar", Category: CategoryWarning}
	}
}
