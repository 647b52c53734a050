package analytics

import (
	"sort"
	"time"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// DueSoon clientes cuya próxima fecha de cobro cae entre hoy y hoy+days (por día calendario),
// incluidos los ya vencidos (DaysLeft negativo). Ordenados por fecha de vencimiento.
// Es informativo: nunca cambia el estado de un cliente.
func DueSoon(customers []*entity.Customer, now time.Time, days int) []dto.DueSoonDTO {
	today := truncateDay(now)
	limit := today.AddDate(0, 0, days)

	out := make([]dto.DueSoonDTO, 0)
	for _, c := range customers {
		due := truncateDay(c.NextPaymentDate.In(now.Location()))
		if due.After(limit) {
			continue
		}
		out = append(out, dto.DueSoonDTO{
			CustomerID:      c.ID,
			Name:            c.Name,
			PhoneNumber:     c.PhoneNumber,
			NextPaymentDate: c.NextPaymentDate,
			DaysLeft:        daysBetween(today, due),
			MonthlyFee:      c.MonthlyFee,
			Status:          string(c.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextPaymentDate.Before(out[j].NextPaymentDate) })
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween días calendario de a a b (negativo si b es anterior).
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
