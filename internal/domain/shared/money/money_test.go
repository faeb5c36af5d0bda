package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRateRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		amount int64
		rate   string
		want   int64
	}{
		{amount: 2100, rate: "0.9", want: 1890},
		{amount: 2100, rate: "0.0191", want: 40},
		{amount: 1890, rate: "0.0191", want: 36},
		{amount: 150, rate: "0.5", want: 75},
		{amount: 5, rate: "0.5", want: 3},
		{amount: 0, rate: "0.0191", want: 0},
	}
	for _, tt := range tests {
		got := ApplyRate(tt.amount, decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got, "%d × %s", tt.amount, tt.rate)
	}
}

func TestRoundDiv(t *testing.T) {
	assert.Equal(t, int64(328), RoundDiv(985, 3))
	assert.Equal(t, int64(3), RoundDiv(5, 2))
	assert.Equal(t, int64(0), RoundDiv(5, 0))
}

func TestAddRequiresSameCurrency(t *testing.T) {
	sum, err := Must(10, "usd").Add(Must(5, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum.Amount)

	_, err = Must(10, "USD").Add(Must(5, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$300", Must(300, "USD").String())
	assert.Equal(t, "-$210", Format(-210, "USD"))
	assert.Equal(t, "€95", Format(95, "eur"))
	assert.Equal(t, "4200 MXN", Format(4200, "MXN"))
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("0.0191")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.RequireFromString("0.0191")))

	_, err = ParseRate("-0.1")
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = ParseRate("abc")
	assert.ErrorIs(t, err, ErrInvalidRate)
}
