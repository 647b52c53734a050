package receiptcode_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tagihan-api/pkg/receiptcode"
)

// Vector calculado con SHA-384 sobre:
//
//	"c-1" + "p-1" + "2024-02-20" + "150000.00" + "rahasia"
const vectorWithKey = "fabed4f562e46419088d113d4bc80d74e0683a53ee1148397199ce95d5c13efd6e5289d53d025fd72351825ed8eed971"

func params() receiptcode.Params {
	return receiptcode.Params{
		CustomerID: "c-1",
		PaymentID:  "p-1",
		Date:       time.Date(2024, 2, 20, 14, 30, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(150000),
		Key:        "rahasia",
	}
}

func TestCalculate_Vector(t *testing.T) {
	got, err := receiptcode.Calculate(params())

	require.NoError(t, err)
	assert.Equal(t, vectorWithKey, got)
	assert.Len(t, got, 96)
}

func TestCalculate_WithoutKey(t *testing.T) {
	p := params()
	p.Key = ""

	got, err := receiptcode.Calculate(p)

	require.NoError(t, err)
	assert.Equal(t, "52fa3dcf456614c4f24f673387f3788aa47f33401f7256e6f8c8ddd719c78604b2e0b385cc8bb047c2f9e267eda2b230", got)
}

func TestCalculate_AmountRounding(t *testing.T) {
	p := params()
	p.Amount = decimal.RequireFromString("150000.004")

	got, err := receiptcode.Calculate(p)

	require.NoError(t, err)
	assert.Equal(t, vectorWithKey, got, "el monto se redondea a 2 decimales")
}

func TestCalculate_MissingFields(t *testing.T) {
	tests := map[string]func(*receiptcode.Params){
		"sin cliente": func(p *receiptcode.Params) { p.CustomerID = "  " },
		"sin pago":    func(p *receiptcode.Params) { p.PaymentID = "" },
		"sin fecha":   func(p *receiptcode.Params) { p.Date = time.Time{} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := params()
			mutate(&p)
			_, err := receiptcode.Calculate(p)
			assert.ErrorIs(t, err, receiptcode.ErrMissingField)
		})
	}
}

func TestShortAndVerify(t *testing.T) {
	short := receiptcode.Short(vectorWithKey)

	assert.Equal(t, "FABED4F562E46419", short)
	assert.True(t, receiptcode.Verify(params(), short))
	assert.True(t, receiptcode.Verify(params(), vectorWithKey))

	other := params()
	other.Key = "otra"
	assert.False(t, receiptcode.Verify(other, short))
	assert.False(t, receiptcode.Verify(params(), ""))
	assert.False(t, receiptcode.Verify(params(), "FABED4"))
}
