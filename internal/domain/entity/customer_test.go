package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

var (
	installed = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	firstDue  = time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
)

func validInput() entity.CustomerInput {
	return entity.CustomerInput{
		Name:             "  Budi Santoso ",
		PhoneNumber:      "081234567890",
		Address:          "Jl. Merdeka 1",
		Plan:             "20 Mbps",
		InstallationDate: installed,
		MonthlyFee:       decimal.NewFromInt(150000),
	}
}

func TestNewCustomer_Defaults(t *testing.T) {
	c, err := entity.NewCustomer("c-1", validInput(), firstDue)

	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", c.Name)
	assert.Equal(t, entity.StatusPending, c.Status)
	assert.Equal(t, firstDue, c.NextPaymentDate)
	assert.NotNil(t, c.PaymentHistory)
	assert.Empty(t, c.PaymentHistory)
}

func TestNewCustomer_Validation(t *testing.T) {
	tests := map[string]struct {
		mutate func(*entity.CustomerInput)
		field  string
	}{
		"sin nombre":      {func(in *entity.CustomerInput) { in.Name = "  " }, "name"},
		"sin teléfono":    {func(in *entity.CustomerInput) { in.PhoneNumber = "" }, "phoneNumber"},
		"email inválido":  {func(in *entity.CustomerInput) { in.Email = "no-es-email" }, "email"},
		"sin instalación": {func(in *entity.CustomerInput) { in.InstallationDate = time.Time{} }, "installationDate"},
		"cuota negativa":  {func(in *entity.CustomerInput) { in.MonthlyFee = decimal.NewFromInt(-1) }, "monthlyFee"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := entity.NewCustomer("c-1", in, firstDue)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCustomer_ValidateHistory(t *testing.T) {
	c, err := entity.NewCustomer("c-1", validInput(), firstDue)
	require.NoError(t, err)
	p := entity.Payment{ID: "p-1", Date: firstDue, Amount: decimal.NewFromInt(1), Signature: "s"}
	c.PaymentHistory = []entity.Payment{p, p}

	assert.ErrorIs(t, c.Validate(), domain.ErrValidation, "ids de pago repetidos")

	c.PaymentHistory = []entity.Payment{{ID: "", Date: firstDue}}
	assert.ErrorIs(t, c.Validate(), domain.ErrValidation)

	c.PaymentHistory = nil
	c.Status = "Lunas"
	assert.ErrorIs(t, c.Validate(), domain.ErrValidation)
}

func TestCustomer_CloneIsDeep(t *testing.T) {
	c, err := entity.NewCustomer("c-1", validInput(), firstDue)
	require.NoError(t, err)
	c.PaymentHistory = append(c.PaymentHistory, entity.Payment{ID: "p-1", Date: firstDue, Amount: decimal.NewFromInt(1)})

	cp := c.Clone()
	cp.PaymentHistory[0].ID = "otro"
	cp.PaymentHistory = append(cp.PaymentHistory, entity.Payment{ID: "p-2"})
	cp.Name = "X"

	assert.Equal(t, "p-1", c.PaymentHistory[0].ID)
	assert.Len(t, c.PaymentHistory, 1)
	assert.Equal(t, "Budi Santoso", c.Name)
	assert.Nil(t, (*entity.Customer)(nil).Clone())
}

func TestCustomer_SortedHistoryAndFind(t *testing.T) {
	c := &entity.Customer{PaymentHistory: []entity.Payment{
		{ID: "p-1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p-3", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p-2", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}}

	sorted := c.SortedHistory()

	assert.Equal(t, "p-3", sorted[0].ID)
	assert.Equal(t, "p-1", sorted[2].ID)
	assert.Equal(t, "p-1", c.PaymentHistory[0].ID, "el historial almacenado conserva el orden de inserción")

	p, ok := c.FindPayment("p-2")
	require.True(t, ok)
	assert.Equal(t, "p-2", p.ID)
	_, ok = c.FindPayment("nope")
	assert.False(t, ok)
}

func TestParseCustomerStatus(t *testing.T) {
	st, err := entity.ParseCustomerStatus(" paid ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, st)

	_, err = entity.ParseCustomerStatus("lunas")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// El formato persistido usa las claves camelCase de la colección original.
func TestCustomer_JSONShape(t *testing.T) {
	c, err := entity.NewCustomer("c-1", validInput(), firstDue)
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"id", "name", "phoneNumber", "address", "plan", "installationDate", "monthlyFee", "status", "nextPaymentDate", "paymentHistory"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "email", "email vacío se omite")
	assert.Equal(t, "Pending", m["status"])
}

func TestNewPayment(t *testing.T) {
	p, err := entity.NewPayment("p-1", firstDue, decimal.NewFromInt(150000), "sig")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)

	_, err = entity.NewPayment("", firstDue, decimal.NewFromInt(1), "sig")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = entity.NewPayment("p", time.Time{}, decimal.NewFromInt(1), "sig")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = entity.NewPayment("p", firstDue, decimal.NewFromInt(-1), "sig")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
