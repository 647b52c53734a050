package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/application/usecase"
	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

type fakeInsights struct {
	gotHistory string
	result     *dto.PaymentInsightsDTO
	err        error
	block      bool
}

func (f *fakeInsights) Provider() string { return "fake" }

func (f *fakeInsights) GeneratePaymentInsights(ctx context.Context, history string) (*dto.PaymentInsightsDTO, error) {
	f.gotHistory = history
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

type staticLister []*entity.Customer

func (s staticLister) List() []*entity.Customer { return s }

type countingMetrics struct{ calls, failures int }

func (m *countingMetrics) ObserveInsights(_ string, err error) {
	m.calls++
	if err != nil {
		m.failures++
	}
}

func customersFixture() staticLister {
	return staticLister{
		{
			ID:   "c-1",
			Name: "Budi",
			PaymentHistory: []entity.Payment{
				{ID: "p-1", Date: time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC), Amount: decimal.NewFromInt(150000)},
				{ID: "p-2", Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("150000.5")},
			},
		},
		{ID: "c-2", Name: "Siti", PaymentHistory: []entity.Payment{}},
	}
}

func TestFormatPaymentHistory(t *testing.T) {
	got := usecase.FormatPaymentHistory(customersFixture())

	want := "Customer ID: c-1, Name: Budi, Payments: [Date: 2024-02-10T09:30:00.000Z, Amount: 150000], " +
		"[Date: 2024-03-12T00:00:00.000Z, Amount: 150000.5]; " +
		"Customer ID: c-2, Name: Siti, Payments: No payments recorded"
	assert.Equal(t, want, got)
}

func TestInsightsUseCase_Generate(t *testing.T) {
	svc := &fakeInsights{result: &dto.PaymentInsightsDTO{Summary: "ok"}}
	m := &countingMetrics{}
	uc := usecase.NewInsightsUseCase(svc, customersFixture(), time.Second, m, zerolog.Nop())

	out, err := uc.Generate(context.Background(), []string{"c-2"})

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Summary)
	assert.Equal(t, "Customer ID: c-2, Name: Siti, Payments: No payments recorded", svc.gotHistory)
	assert.Equal(t, 1, m.calls)
	assert.Zero(t, m.failures)
}

func TestInsightsUseCase_CollaboratorFailure(t *testing.T) {
	svc := &fakeInsights{err: errors.New("HTTP 500")}
	m := &countingMetrics{}
	uc := usecase.NewInsightsUseCase(svc, customersFixture(), time.Second, m, zerolog.Nop())

	_, err := uc.Generate(context.Background(), nil)

	require.Error(t, err)
	var ce *domain.CollaboratorError
	assert.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, domain.ErrCollaborator)
	assert.Equal(t, 1, m.failures)
}

func TestInsightsUseCase_UnknownCustomer(t *testing.T) {
	uc := usecase.NewInsightsUseCase(&fakeInsights{}, customersFixture(), time.Second, nil, zerolog.Nop())

	_, err := uc.Generate(context.Background(), []string{"nope"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsightsUseCase_EmptyCollection(t *testing.T) {
	svc := &fakeInsights{}
	uc := usecase.NewInsightsUseCase(svc, staticLister{}, time.Second, nil, zerolog.Nop())

	_, err := uc.Generate(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, svc.gotHistory, "no se llama al colaborador sin clientes")
}

func TestInsightsUseCase_Timeout(t *testing.T) {
	uc := usecase.NewInsightsUseCase(&fakeInsights{block: true}, customersFixture(), 20*time.Millisecond, nil, zerolog.Nop())

	_, err := uc.Generate(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrCollaborator)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInsightsUseCase_GenerateAsyncCancel(t *testing.T) {
	uc := usecase.NewInsightsUseCase(&fakeInsights{block: true}, customersFixture(), time.Minute, nil, zerolog.Nop())

	results, cancel := uc.GenerateAsync(context.Background(), nil)
	cancel()

	select {
	case res, ok := <-results:
		require.True(t, ok)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Nil(t, res.Insights)
	case <-time.After(2 * time.Second):
		t.Fatal("GenerateAsync no respetó la cancelación")
	}
	_, ok := <-results
	assert.False(t, ok, "el canal se cierra tras el único resultado")
}
