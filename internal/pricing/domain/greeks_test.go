package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreeksReferenceScenario(t *testing.T) {
	g, err := CalculateGreeks(atmCall(), 0)
	require.NoError(t, err)

	assert.InDelta(t, 0.6368, g.Delta, 1e-3)
	assert.Greater(t, g.Gamma, 0.0)
	assert.Greater(t, g.Vega, 0.0)
	assert.Less(t, g.Theta, 0.0) // 时间价值衰减
	assert.Greater(t, g.Rho, 0.0)
}

func TestGreeksSignInvariants(t *testing.T) {
	for _, spot := range []float64{60, 90, 100, 115, 160} {
		for _, vol := range []float64{0.1, 0.3, 0.8} {
			in := atmCall()
			in.SpotPrice = spot
			in.Volatility = vol

			call, err := CalculateGreeks(in, 0)
			require.NoError(t, err)
			put, err := CalculateGreeks(asPut(in), 0)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, call.Delta, 0.0, "S=%v vol=%v", spot, vol)
			assert.LessOrEqual(t, call.Delta, 1.0)
			assert.GreaterOrEqual(t, put.Delta, -1.0)
			assert.LessOrEqual(t, put.Delta, 0.0)
			assert.GreaterOrEqual(t, call.Gamma, 0.0)
			assert.GreaterOrEqual(t, call.Vega, 0.0)

			// 同一行权价与期限下，看涨/看跌的 gamma 与 vega 相同
			assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
			assert.InDelta(t, call.Vega, put.Vega, 1e-12)

			// delta 平价: delta_call - delta_put = 1
			assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-9)
		}
	}
}

func TestGreeksRhoSigns(t *testing.T) {
	call, err := CalculateGreeks(atmCall(), 0)
	require.NoError(t, err)
	put, err := CalculateGreeks(asPut(atmCall()), 0)
	require.NoError(t, err)

	assert.Greater(t, call.Rho, 0.0)
	assert.Less(t, put.Rho, 0.0)
}

func TestGreeksExpiredContract(t *testing.T) {
	in := atmCall()
	in.SpotPrice = 110
	in.TimeToExpiry = 0

	g, err := CalculateGreeks(in, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.Delta)
	assert.Zero(t, g.Gamma)
	assert.Zero(t, g.Vega)
	assert.Zero(t, g.Theta)
	assert.Zero(t, g.Rho)

	otm := in
	otm.SpotPrice = 90
	g, err = CalculateGreeks(otm, 0)
	require.NoError(t, err)
	assert.Zero(t, g.Delta)
}

func TestGreeksInvalidInput(t *testing.T) {
	in := atmCall()
	in.Volatility = 0
	_, err := CalculateGreeks(in, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
