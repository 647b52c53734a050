package analytics

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// Search filtra por subcadena en nombre o id, sin distinguir mayúsculas ni acentos.
// Un término vacío devuelve la lista completa. Conserva el orden de entrada.
func Search(customers []*entity.Customer, term string) []*entity.Customer {
	needle := fold(strings.TrimSpace(term))
	if needle == "" {
		return customers
	}
	out := make([]*entity.Customer, 0, len(customers))
	for _, c := range customers {
		if strings.Contains(fold(c.Name), needle) || strings.Contains(fold(c.ID), needle) {
			out = append(out, c)
		}
	}
	return out
}

// fold pasa a minúsculas y elimina marcas diacríticas (é → e).
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
