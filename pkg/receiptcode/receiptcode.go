// Package receiptcode calcula el código de verificación impreso en cada kuitansi.
//
// El código es un SHA-384 en hexadecimal sobre la concatenación estricta:
//
//	CustomerID + PaymentID + Fecha (YYYY-MM-DD) + Monto (2 decimales) + Clave
//
// Quien conozca la clave puede recalcularlo a partir de los datos del QR.
package receiptcode

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ShortLen es la longitud del código abreviado que se imprime junto al QR.
const ShortLen = 16

// ErrMissingField indica que falta un dato obligatorio de la cadena.
var ErrMissingField = errors.New("receiptcode: campo obligatorio vacío")

// Params datos del pago que entran en el código.
type Params struct {
	CustomerID string
	PaymentID  string
	Date       time.Time
	Amount     decimal.Decimal
	Key        string // clave de la empresa; vacía produce un código sin secreto
}

// Calculate devuelve el código completo (96 caracteres hex).
func Calculate(p Params) (string, error) {
	cid := strings.TrimSpace(p.CustomerID)
	pid := strings.TrimSpace(p.PaymentID)
	if cid == "" {
		return "", fmt.Errorf("%w: CustomerID", ErrMissingField)
	}
	if pid == "" {
		return "", fmt.Errorf("%w: PaymentID", ErrMissingField)
	}
	if p.Date.IsZero() {
		return "", fmt.Errorf("%w: Date", ErrMissingField)
	}

	cadena := cid +
		pid +
		p.Date.Format("2006-01-02") +
		formatAmount(p.Amount) +
		p.Key

	hash := sha512.Sum384([]byte(cadena))
	return hex.EncodeToString(hash[:]), nil
}

// Short abrevia el código para mostrarlo en el comprobante.
func Short(code string) string {
	if len(code) > ShortLen {
		code = code[:ShortLen]
	}
	return strings.ToUpper(code)
}

// Verify compara un código (completo o abreviado) con el recalculado.
func Verify(p Params, code string) bool {
	want, err := Calculate(p)
	if err != nil || code == "" {
		return false
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) == len(want) {
		return code == want
	}
	return len(code) == ShortLen && strings.HasPrefix(want, code)
}

// formatAmount: sin separador de miles, punto decimal, 2 decimales.
func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
