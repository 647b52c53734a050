// Package pdf genera el comprobante de pago (kuitansi) de un cliente.
//
// Layout de la página A5:
//
//	┌───────────────────────────────────────────────┐
//	│  HEADER: Empresa          │  N° Pago + Fecha   │
//	│  ───────────────────────────────────────────  │
//	│  CLIENTE: Nombre / ID / Plan / Dirección       │
//	│  ───────────────────────────────────────────  │
//	│  MONTO PAGADO  │  Próximo vencimiento          │
//	│  ───────────────────────────────────────────  │
//	│  FIRMA (imagen)           │  QR de verificación│
//	│                           │  Código abreviado  │
//	└───────────────────────────────────────────────┘
package pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/domain/cycle"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/pkg/money"
	"github.com/jhoicas/Tagihan-api/pkg/receiptcode"
)

var _ appbilling.ReceiptPDFGenerator = (*MarotoReceiptGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorSuccess = &props.Color{Red: 22, Green: 128, Blue: 61}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReceiptGenerator implementa billing.ReceiptPDFGenerator usando Maroto v2.
type MarotoReceiptGenerator struct {
	companyName string
	codeKey     string
}

// NewMarotoReceiptGenerator construye el generador; companyName aparece en el encabezado.
func NewMarotoReceiptGenerator(companyName string) *MarotoReceiptGenerator {
	return &MarotoReceiptGenerator{companyName: companyName}
}

// WithCodeKey fija la clave con la que se firma el código de verificación.
func (g *MarotoReceiptGenerator) WithCodeKey(key string) *MarotoReceiptGenerator {
	g.codeKey = key
	return g
}

// GenerateReceiptPDF genera el comprobante del pago y devuelve sus bytes.
func (g *MarotoReceiptGenerator) GenerateReceiptPDF(
	_ context.Context,
	customer *entity.Customer,
	payment *entity.Payment,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kuitansi Pembayaran", true).
		WithAuthor(g.companyName, true).
		Build()

	verification, err := receiptcode.Calculate(receiptcode.Params{
		CustomerID: customer.ID,
		PaymentID:  payment.ID,
		Date:       payment.Date,
		Amount:     payment.Amount,
		Key:        g.codeKey,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: código de verificación: %w", err)
	}

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.companyName, payment))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(amountRow(customer, payment))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(signatureRow(customer, payment, verification))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(companyName string, payment *entity.Payment) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(companyName, "Tagihan"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Kuitansi Pembayaran", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("N° "+shortID(payment.ID), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2,
			}),
			text.New("Tanggal: "+payment.Date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

func customerRow(c *entity.Customer) core.Row {
	return row.New(20).Add(
		col.New(12).Add(
			text.New("PELANGGAN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("ID: %s   |   Paket: %s", c.ID, nonEmpty(c.Plan, "-")), props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Alamat: %s   |   Tel: %s", nonEmpty(c.Address, "-"), nonEmpty(c.PhoneNumber, "-")), props.Text{
				Size: 8, Top: 16, Color: colorGray,
			}),
		),
	)
}

func amountRow(c *entity.Customer, p *entity.Payment) core.Row {
	status := cycle.DeriveDisplayStatus(c)
	return row.New(18).Add(
		col.New(6).Add(
			text.New("JUMLAH DIBAYAR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
			}),
			text.New(money.FormatIDR(p.Amount), props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorSuccess, Top: 7,
			}),
		),
		col.New(6).Add(
			text.New("Jatuh tempo berikutnya", props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(c.NextPaymentDate.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 7,
			}),
			text.New("Status: "+status.Label, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// signatureRow: imagen de la firma (si se puede decodificar) y QR con los datos del pago.
func signatureRow(c *entity.Customer, p *entity.Payment, verification string) core.Row {
	var signature core.Col
	if img, ok := decodeDataURL(p.Signature); ok {
		signature = col.New(8).Add(
			text.New("Tanda tangan", props.Text{Size: 8, Color: colorGray, Top: 1}),
			image.NewFromBytes(img, extension.Png, props.Rect{Percent: 70, Top: 6}),
		)
	} else {
		signature = col.New(8).Add(
			text.New("Tanda tangan", props.Text{Size: 8, Color: colorGray, Top: 1}),
			text.New("(firma no disponible)", props.Text{Size: 8, Top: 10, Color: colorGray}),
		)
	}
	short := receiptcode.Short(verification)
	qr := fmt.Sprintf("TAGIHAN|%s|%s|%s|%s", c.ID, p.ID, p.Amount.StringFixed(0), short)
	return row.New(44).Add(
		signature,
		col.New(4).Add(
			code.NewQr(qr, props.Rect{Percent: 80, Center: true}),
			text.New(short, props.Text{Size: 6, Align: align.Center, Top: 38, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// decodeDataURL extrae los bytes de una data URL PNG en base64 ("data:image/png;base64,...").
func decodeDataURL(s string) ([]byte, bool) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(s, prefix) {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
