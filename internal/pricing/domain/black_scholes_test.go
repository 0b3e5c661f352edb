package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atmCall() PricingInput {
	return PricingInput{
		SpotPrice:    100,
		StrikePrice:  100,
		TimeToExpiry: 1,
		RiskFreeRate: 0.05,
		Volatility:   0.2,
		OptionType:   OptionTypeCall,
	}
}

func asPut(in PricingInput) PricingInput {
	in.OptionType = OptionTypePut
	return in
}

func TestBlackScholesReferenceScenario(t *testing.T) {
	call, err := BlackScholesPrice(atmCall(), 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, call, 1e-3)

	put, err := BlackScholesPrice(asPut(atmCall()), 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.5735, put, 1e-3)
}

func TestBlackScholesPutCallParity(t *testing.T) {
	for _, spot := range []float64{60, 85, 100, 120, 180} {
		for _, vol := range []float64{0.1, 0.25, 0.6} {
			in := atmCall()
			in.SpotPrice = spot
			in.Volatility = vol

			call, err := BlackScholesPrice(in, 0)
			require.NoError(t, err)
			put, err := BlackScholesPrice(asPut(in), 0)
			require.NoError(t, err)

			forward := spot - in.StrikePrice*math.Exp(-in.RiskFreeRate*in.TimeToExpiry)
			assert.InDelta(t, forward, call-put, 1e-6, "S=%v vol=%v", spot, vol)
		}
	}
}

func TestBlackScholesNoArbitrageBounds(t *testing.T) {
	// 欧式期权下界：看涨 ≥ max(0, S - K·e^{-rT})，看跌 ≥ max(0, K·e^{-rT} - S)
	// r > 0 时深度实值的欧式看跌可以低于未贴现的 K - S，这不是定价错误
	for _, spot := range []float64{50, 90, 100, 110, 200} {
		in := atmCall()
		in.SpotPrice = spot
		discountedStrike := in.StrikePrice * math.Exp(-in.RiskFreeRate*in.TimeToExpiry)

		call, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, call, math.Max(0, spot-discountedStrike)-1e-9, "S=%v", spot)
		assert.GreaterOrEqual(t, call, math.Max(0, spot-in.StrikePrice)-1e-9, "S=%v", spot)

		put, err := BlackScholesPrice(asPut(in), 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, put, math.Max(0, discountedStrike-spot)-1e-9, "S=%v", spot)
	}
}

func TestBlackScholesMonotonicInSpotAndVol(t *testing.T) {
	prev := -1.0
	for spot := 50.0; spot <= 150.0; spot += 1 {
		in := atmCall()
		in.SpotPrice = spot
		price, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, prev-1e-9, "spot=%v", spot)
		prev = price
	}

	prev = -1.0
	for vol := 0.05; vol <= 1.0; vol += 0.01 {
		in := atmCall()
		in.Volatility = vol
		price, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, prev-1e-9, "vol=%v", vol)
		prev = price
	}
}

func TestBlackScholesExpiredReturnsIntrinsic(t *testing.T) {
	in := atmCall()
	in.SpotPrice = 110
	in.TimeToExpiry = 0

	price, err := BlackScholesPrice(in, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, price, 1e-12)

	put := asPut(in)
	price, err = BlackScholesPrice(put, 0)
	require.NoError(t, err)
	assert.Zero(t, price)
}

func TestBlackScholesInvalidInput(t *testing.T) {
	cases := map[string]func(*PricingInput){
		"negative expiry":   func(in *PricingInput) { in.TimeToExpiry = -0.1 },
		"zero volatility":   func(in *PricingInput) { in.Volatility = 0 },
		"negative spot":     func(in *PricingInput) { in.SpotPrice = -1 },
		"zero strike":       func(in *PricingInput) { in.StrikePrice = 0 },
		"bad option type":   func(in *PricingInput) { in.OptionType = "STRADDLE" },
		"empty option type": func(in *PricingInput) { in.OptionType = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := atmCall()
			mutate(&in)
			_, err := BlackScholesPrice(in, 0)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for _, vol := range []float64{0.1, 0.2, 0.45} {
		in := atmCall()
		in.Volatility = vol
		price, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)

		// 求解时波动率是未知量，给一个任意正的占位值通过校验
		guess := in
		guess.Volatility = 0.5
		implied, err := ImpliedVolatility(guess, price, 0)
		require.NoError(t, err)
		assert.InDelta(t, vol, implied, 1e-4)
	}
}

func TestImpliedVolatilityBelowIntrinsic(t *testing.T) {
	in := atmCall()
	in.SpotPrice = 150
	_, err := ImpliedVolatility(in, 10, 0) // 内在价值 50
	assert.ErrorIs(t, err, ErrInvalidInput)
}
