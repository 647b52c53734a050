package reminder

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

type staticLister []*entity.Customer

func (s staticLister) List() []*entity.Customer { return s }

func TestNewJob_InvalidSchedule(t *testing.T) {
	_, err := NewJob(staticLister{}, "no es cron", 3, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestJob_RunOnceLogsAndNotifiesWithoutMutating(t *testing.T) {
	now := time.Date(2024, 2, 12, 8, 0, 0, 0, time.UTC)
	c := &entity.Customer{
		ID: "c-1", Name: "Budi", PhoneNumber: "0812", Status: entity.StatusPending,
		InstallationDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		NextPaymentDate:  time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		MonthlyFee:       decimal.NewFromInt(150000),
		PaymentHistory:   []entity.Payment{},
	}
	var buf bytes.Buffer
	var notified []dto.DueSoonDTO

	j, err := NewJob(staticLister{c}, "0 9 * * *", 3, func(due []dto.DueSoonDTO) { notified = due }, zerolog.New(&buf))
	require.NoError(t, err)
	j.now = func() time.Time { return now }

	due := j.RunOnce()

	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].DaysLeft)
	assert.Equal(t, due, notified)
	assert.Contains(t, buf.String(), `"customer_id":"c-1"`)
	assert.Contains(t, buf.String(), "Rp 150.000")
	assert.Equal(t, entity.StatusPending, c.Status)
}
