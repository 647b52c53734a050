// Package money formatea montos en rupias (IDR) con las convenciones locales de Indonesia.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// FormatIDR devuelve el monto redondeado a rupias enteras con separador de miles local.
// Ej: 150000 → "Rp 150.000"; -2500 → "-Rp 2.500".
func FormatIDR(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	if n < 0 {
		return printer.Sprintf("-Rp %d", -n)
	}
	return printer.Sprintf("Rp %d", n)
}

// FormatNumber separador de miles local sin símbolo de moneda.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}
