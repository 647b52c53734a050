package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// StoreMetrics puerto de observabilidad del almacén de clientes.
// Lo implementa infrastructure/metrics con Prometheus; por defecto no hace nada.
type StoreMetrics interface {
	// ObserveOperation registra una operación (create, update, replace, record_payment,
	// delete, reload) con su duración y su error, si lo hubo.
	ObserveOperation(op string, err error, elapsed time.Duration)
	// ObserveExternalChange registra un aviso del medio; changed indica si hubo difusión.
	ObserveExternalChange(changed bool)
	// SetCustomers fija el tamaño actual de la colección.
	SetCustomers(n int)
}

// ReceiptPDFGenerator puerto para generar el comprobante de un pago (PDF).
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, customer *entity.Customer, payment *entity.Payment) ([]byte, error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, error, time.Duration) {}
func (noopMetrics) ObserveExternalChange(bool)                     {}
func (noopMetrics) SetCustomers(int)                               {}
