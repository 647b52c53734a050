package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// CustomerReader lectura de clientes; lo implementa CustomerStore.
type CustomerReader interface {
	Get(id string) (*entity.Customer, error)
	List() []*entity.Customer
}

var _ CustomerReader = (*CustomerStore)(nil)

// ReceiptUseCase genera el comprobante PDF de un pago ya registrado.
type ReceiptUseCase struct {
	customers CustomerReader
	generator ReceiptPDFGenerator
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(customers CustomerReader, generator ReceiptPDFGenerator) *ReceiptUseCase {
	return &ReceiptUseCase{customers: customers, generator: generator}
}

// DownloadReceipt busca el pago en el historial del cliente y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - *domain.NotFoundError     si el cliente o el pago no existen.
func (uc *ReceiptUseCase) DownloadReceipt(ctx context.Context, customerID, paymentID string) ([]byte, string, error) {
	c, err := uc.customers.Get(customerID)
	if err != nil {
		return nil, "", err
	}
	p, ok := c.FindPayment(paymentID)
	if !ok {
		return nil, "", &domain.NotFoundError{ID: paymentID}
	}

	pdfBytes, err := uc.generator.GenerateReceiptPDF(ctx, c, p)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: generación fallida: %w", err)
	}
	filename := fmt.Sprintf("kuitansi_%s_%s.pdf", c.ID, p.Date.Format("20060102"))
	return pdfBytes, filename, nil
}
