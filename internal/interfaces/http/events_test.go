package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

func TestLatestOnly_KeepsNewestSnapshot(t *testing.T) {
	ch := make(chan []*entity.Customer, 1)
	push := latestOnly(ch)

	push([]*entity.Customer{{ID: "a"}})
	push([]*entity.Customer{{ID: "b"}})
	push([]*entity.Customer{{ID: "c"}})

	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
	assert.Empty(t, ch)
}

func TestWriteSnapshotEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	customers := []*entity.Customer{{
		ID: "c-1", Name: "Budi", Status: entity.StatusPaid,
		MonthlyFee: decimal.NewFromInt(100000),
		PaymentHistory: []entity.Payment{
			{ID: "p-1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(100000), Signature: "data:image/png;base64,AAAA"},
		},
	}}

	require.NoError(t, writeSnapshotEvent(w, customers))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: customers\ndata: "), out)
	require.True(t, strings.HasSuffix(out, "\n\n"))
	payload := strings.TrimSuffix(strings.TrimPrefix(out, "event: customers\ndata: "), "\n\n")

	var items []dto.CustomerResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Lunas", items[0].DisplayStatus.Label)
	assert.True(t, items[0].PaymentHistory[0].HasSignature)
	assert.Empty(t, items[0].PaymentHistory[0].Signature, "el stream no transporta firmas")
}
