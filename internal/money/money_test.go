package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		total     float64
		deposit   float64
		remaining float64
	}{
		{
			name:      "round total",
			total:     1000.00,
			deposit:   300.00,
			remaining: 700.00,
		},
		{
			name:      "uneven total",
			total:     1234.56,
			deposit:   370.37,
			remaining: 864.19,
		},
		{
			name:      "small total",
			total:     0.10,
			deposit:   0.03,
			remaining: 0.07,
		},
		{
			name:      "zero total",
			total:     0,
			deposit:   0,
			remaining: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deposit, remaining := Split(tt.total)
			assert.Equal(t, tt.deposit, deposit)
			assert.Equal(t, tt.remaining, remaining)
		})
	}
}

func TestSplitSumInvariant(t *testing.T) {
	// Предоплата и остаток всегда складываются в округлённую полную стоимость.
	totals := []float64{100.05, 999.99, 0.01, 150.115, 88888.33}

	for _, total := range totals {
		deposit, remaining := Split(total)
		assert.Equal(t, Round2(total), Round2(deposit+remaining), "total %v", total)
	}
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 1000.00, Total(200, 5))
	assert.Equal(t, 2500.00, Total(2500, 1))
	assert.Equal(t, 0.00, Total(200, 0))
	assert.Equal(t, 599.97, Total(199.99, 3))
}

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(30000), ToCents(300.00))
	assert.Equal(t, int64(3), ToCents(0.03))
	assert.Equal(t, 300.00, FromCents(30000))
	assert.Equal(t, 0.03, FromCents(3))
}
