package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStochasticVolDegeneratesToBlackScholes(t *testing.T) {
	for _, in := range []PricingInput{atmCall(), asPut(atmCall())} {
		closed, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)

		price, err := StochasticVolPrice(in, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, closed, price, "type=%s", in.OptionType)
	}
}

func TestStochasticVolSmallVolOfVolStaysClose(t *testing.T) {
	closed, err := BlackScholesPrice(atmCall(), 0)
	require.NoError(t, err)

	price, err := StochasticVolPrice(atmCall(), 0.05, 0)
	require.NoError(t, err)
	assert.InDelta(t, closed, price, 0.1)
}

func TestStochasticVolIntrinsicFloor(t *testing.T) {
	in := atmCall()
	in.SpotPrice = 140

	price, err := StochasticVolPrice(in, 0.5, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, price, in.IntrinsicValue()-1e-9)
}

func TestStochasticVolNegativeVolOfVol(t *testing.T) {
	_, err := StochasticVolPrice(atmCall(), -0.1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
