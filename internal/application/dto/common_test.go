package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         dto.PageRequest
		wantLimit  int
		wantOffset int
	}{
		{"vacío", dto.PageRequest{}, 20, 0},
		{"tope", dto.PageRequest{Limit: 500, Offset: 3}, dto.MaxPageLimit, 3},
		{"offset negativo", dto.PageRequest{Limit: 5, Offset: -1}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestPageRequest_Window(t *testing.T) {
	p := dto.PageRequest{Limit: 2, Offset: 1}

	start, end := p.Window(5)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)

	start, end = p.Window(0)
	assert.Zero(t, start)
	assert.Zero(t, end)

	start, end = dto.PageRequest{Limit: 10, Offset: 4}.Window(5)
	assert.Equal(t, 4, start)
	assert.Equal(t, 5, end)
}
