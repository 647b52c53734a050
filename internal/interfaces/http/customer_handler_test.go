package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Tagihan-api/internal/application/analytics"
	"github.com/jhoicas/Tagihan-api/internal/application/auth"
	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/application/usecase"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/memory"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Tagihan-api/internal/interfaces/http"
)

const testSignature = "data:image/png;base64,iVBORw0KGgo="

var testNow = time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC)

type fakeInsights struct {
	out *dto.PaymentInsightsDTO
	err error
}

func (f *fakeInsights) Provider() string { return "fake" }

func (f *fakeInsights) GeneratePaymentInsights(context.Context, string) (*dto.PaymentInsightsDTO, error) {
	return f.out, f.err
}

type apiFixture struct {
	app      *fiber.App
	store    *billing.CustomerStore
	insights *fakeInsights
}

// newAPI arma la API completa sobre un medio en memoria. Con secret no vacío exige JWT.
func newAPI(t *testing.T, secret string) *apiFixture {
	t.Helper()
	seq := 0
	store := billing.NewCustomerStore(memory.NewMedium(), billing.StoreConfig{
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	require.NoError(t, err)

	fake := &fakeInsights{out: &dto.PaymentInsightsDTO{Summary: "ok"}}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Store:      store,
		Receipts:   billing.NewReceiptUseCase(store, pdf.NewMarotoReceiptGenerator("ELANET")),
		Dashboard:  analytics.NewDashboardUseCase(store, func() time.Time { return testNow }),
		InsightsUC: usecase.NewInsightsUseCase(fake, store, time.Second, nil, zerolog.Nop()),
		AuthUC:     auth.NewAuthUseCase("admin", string(hash), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: testIssuer}),
		JWTSecret:  secret,
		Logger:     zerolog.Nop(),
	})
	return &apiFixture{app: app, store: store, insights: fake}
}

func (f *apiFixture) do(t *testing.T, method, target string, body any, token string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) createCustomer(t *testing.T, name string) dto.CustomerResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/customers", map[string]any{
		"name":             name,
		"phoneNumber":      "08123456789",
		"address":          "Jl. Merdeka 1",
		"plan":             "20 Mbps",
		"installationDate": "2024-01-15",
		"monthlyFee":       "150000",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

func TestCustomerHandler_CreateAndGet(t *testing.T) {
	api := newAPI(t, "")

	created := api.createCustomer(t, "Budi Santoso")

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, "Belum Dibayar", created.DisplayStatus.Label)
	assert.Equal(t, "warning", created.DisplayStatus.Category)
	assert.Equal(t, "Rp 150.000", created.MonthlyFeeLabel)
	assert.True(t, created.NextPaymentDate.Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)), created.NextPaymentDate)
	assert.Empty(t, created.PaymentHistory)

	resp, body := api.do(t, http.MethodGet, "/api/customers/id-1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Budi Santoso", got.Name)
}

func TestCustomerHandler_CreateRejections(t *testing.T) {
	api := newAPI(t, "")

	tests := map[string]struct {
		body map[string]any
		code string
	}{
		"fecha mal formada": {
			map[string]any{"name": "A", "phoneNumber": "1", "address": "x", "plan": "p", "installationDate": "15/01/2024"},
			"MALFORMED_DATE",
		},
		"sin nombre": {
			map[string]any{"phoneNumber": "1", "address": "x", "plan": "p", "installationDate": "2024-01-15"},
			"VALIDATION",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resp, body := api.do(t, http.MethodPost, "/api/customers", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
	assert.Empty(t, api.store.List(), "ninguna alta rechazada se persiste")
}

func TestCustomerHandler_GetUnknown(t *testing.T) {
	api := newAPI(t, "")

	resp, body := api.do(t, http.MethodGet, "/api/customers/nope", nil, "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestCustomerHandler_RecordPaymentDefaultsToMonthlyFee(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")

	resp, body := api.do(t, http.MethodPost, "/api/customers/id-1/payments", map[string]any{"signature": testSignature}, "")

	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Paid", out.Status)
	assert.Equal(t, "Lunas", out.DisplayStatus.Label)
	require.Len(t, out.PaymentHistory, 1)
	assert.Equal(t, "Rp 150.000", out.PaymentHistory[0].AmountLabel)
	assert.True(t, out.PaymentHistory[0].HasSignature)
	assert.Empty(t, out.PaymentHistory[0].Signature, "la firma no viaja en la respuesta del pago")
	assert.True(t, out.NextPaymentDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), out.NextPaymentDate)
}

func TestCustomerHandler_RecordPaymentRejections(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")

	resp, body := api.do(t, http.MethodPost, "/api/customers/id-1/payments", map[string]any{"amount": "150000"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_PAYMENT", errorCode(t, body))

	resp, _ = api.do(t, http.MethodPost, "/api/customers/id-1/payments", map[string]any{"amount": "0", "signature": testSignature}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/customers/nope/payments", map[string]any{"signature": testSignature}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	c, err := api.store.Get("id-1")
	require.NoError(t, err)
	assert.Empty(t, c.PaymentHistory)
	assert.Equal(t, "Pending", string(c.Status))
}

func TestCustomerHandler_ListSearchAndPage(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")
	api.createCustomer(t, "José Núñez")
	api.createCustomer(t, "Siti")

	resp, body := api.do(t, http.MethodGet, "/api/customers?q=jose", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.CustomerListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "José Núñez", list.Items[0].Name)

	resp, body = api.do(t, http.MethodGet, "/api/customers?limit=2&offset=1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 3, list.Page.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "id-2", list.Items[0].ID)
	assert.Equal(t, "id-3", list.Items[1].ID)
}

func TestCustomerHandler_PatchStatus(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")

	resp, body := api.do(t, http.MethodPatch, "/api/customers/id-1", map[string]any{"status": "overdue", "plan": "50 Mbps"}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.CustomerResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Overdue", out.Status)
	assert.Equal(t, "Jatuh Tempo", out.DisplayStatus.Label)
	assert.Equal(t, "50 Mbps", out.Plan)

	resp, body = api.do(t, http.MethodPatch, "/api/customers/id-1", map[string]any{"status": "Lunas"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

func TestCustomerHandler_DeleteThenNotFound(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")

	resp, _ := api.do(t, http.MethodDelete, "/api/customers/id-1", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = api.do(t, http.MethodDelete, "/api/customers/id-1", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = api.do(t, http.MethodPatch, "/api/customers/id-1", map[string]any{"name": "X"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCustomerHandler_Receipt(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")
	updated, err := api.store.RecordPayment(context.Background(), "id-1", api.store.List()[0].MonthlyFee, testSignature)
	require.NoError(t, err)
	pid := updated.PaymentHistory[0].ID

	resp, body := api.do(t, http.MethodGet, "/api/customers/id-1/payments/"+pid+"/receipt", nil, "")

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "kuitansi_id-1_20240220.pdf")
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = api.do(t, http.MethodGet, "/api/customers/id-1/payments/nope/receipt", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardHandler_Summary(t *testing.T) {
	api := newAPI(t, "")
	api.createCustomer(t, "Budi")
	_, err := api.store.RecordPayment(context.Background(), "id-1", api.store.List()[0].MonthlyFee, testSignature)
	require.NoError(t, err)

	resp, body := api.do(t, http.MethodGet, "/api/dashboard/summary", nil, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s dto.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "Rp 150.000", s.IncomeThisMonthLabel)
	assert.Equal(t, 1, s.TotalCustomers)
	require.Len(t, s.RecentPayments, 1)
	assert.Equal(t, "Budi", s.RecentPayments[0].CustomerName)
}

func TestInsightsHandler(t *testing.T) {
	api := newAPI(t, "")

	resp, body := api.do(t, http.MethodPost, "/api/insights", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sin clientes no hay nada que analizar")
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	api.createCustomer(t, "Budi")

	resp, body = api.do(t, http.MethodPost, "/api/insights", map[string]any{"customerIds": []string{"id-1"}}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.PaymentInsightsDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out.Summary)

	api.insights.err = errors.New("HTTP 503")
	resp, body = api.do(t, http.MethodPost, "/api/insights", nil, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "INSIGHTS_UNAVAILABLE", errorCode(t, body))
	assert.Len(t, api.store.List(), 1, "el análisis no modifica el almacén")
}

func TestRouter_WithAuth(t *testing.T) {
	api := newAPI(t, testJWTSecret)

	resp, _ := api.do(t, http.MethodGet, "/api/customers", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "salah"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := api.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "rahasia"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, 3600, login.ExpiresIn)

	resp, _ = api.do(t, http.MethodGet, "/api/customers", nil, login.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := api.store.Create(context.Background(), createInput())
	require.NoError(t, err)

	resp, _ = api.do(t, http.MethodDelete, "/api/customers/id-1", nil, tokenForRole(t, "operator"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin borra")
	resp, _ = api.do(t, http.MethodDelete, "/api/customers/id-1", nil, login.Token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func createInput() entity.CustomerInput {
	return entity.CustomerInput{
		Name:             "Budi",
		PhoneNumber:      "08123456789",
		Address:          "Jl. Merdeka 1",
		Plan:             "20 Mbps",
		InstallationDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		MonthlyFee:       decimal.NewFromInt(150000),
	}
}
