package mortgage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	in := Defaults(50_000_000)
	assert.Equal(t, 500_000.0, in.Price)
	assert.Equal(t, 100_000.0, in.DownPayment)
	assert.Equal(t, 6.5, in.RatePercent)
	assert.Equal(t, 30, in.Years)
}

func TestCalculate(t *testing.T) {
	q, err := Calculate(Defaults(50_000_000))
	require.NoError(t, err)
	assert.Equal(t, 400_000.0, q.Principal)
	assert.Equal(t, 360, q.Payments)
	assert.InDelta(t, 2528.27, q.MonthlyPayment, 0.01)
	assert.InDelta(t, 20.0, q.DownPaymentPercent, 1e-9)
	assert.InDelta(t, q.MonthlyPayment*360-400_000, q.TotalInterest, 1e-6)

	q, err = Calculate(Input{Price: 120_000, DownPayment: 0, RatePercent: 0, Years: 10})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, q.MonthlyPayment)
	assert.Zero(t, q.TotalInterest)

	q, err = Calculate(Input{Price: 100, DownPayment: 100, RatePercent: 5, Years: 30})
	require.NoError(t, err)
	assert.Zero(t, q.MonthlyPayment)
	assert.Zero(t, q.Principal)
}

func TestValidate(t *testing.T) {
	tests := []Input{
		{Price: -1, Years: 30},
		{Price: 100, DownPayment: 200, Years: 30},
		{Price: 100, RatePercent: 101, Years: 30},
		{Price: 100, Years: 0},
		{Price: 100, Years: 51},
	}
	for _, in := range tests {
		_, err := Calculate(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
}
