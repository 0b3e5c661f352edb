package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonteCarloConvergesToBlackScholes(t *testing.T) {
	params := MonteCarloParams{Samples: 200000, Seed: 7, Workers: 4}

	for _, in := range []PricingInput{atmCall(), asPut(atmCall())} {
		closed, err := BlackScholesPrice(in, 0)
		require.NoError(t, err)

		simulated, err := MonteCarloPrice(context.Background(), in, params, 0)
		require.NoError(t, err)

		assert.InEpsilon(t, closed, simulated, 0.01, "type=%s", in.OptionType)
	}
}

func TestMonteCarloReproducibleWithSeed(t *testing.T) {
	params := MonteCarloParams{Samples: 50000, Seed: 99, Workers: 4}

	first, err := MonteCarloPrice(context.Background(), atmCall(), params, 0)
	require.NoError(t, err)
	second, err := MonteCarloPrice(context.Background(), atmCall(), params, 0)
	require.NoError(t, err)

	// 相同 (seed, workers) 组合必须逐位一致
	assert.Equal(t, first, second)

	params.Seed = 100
	third, err := MonteCarloPrice(context.Background(), atmCall(), params, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestMonteCarloCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params := MonteCarloParams{Samples: 10_000_000, Seed: 1, Workers: 2}
	_, err := MonteCarloPrice(ctx, atmCall(), params, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonteCarloExpiredReturnsIntrinsic(t *testing.T) {
	in := atmCall()
	in.SpotPrice = 110
	in.TimeToExpiry = 0

	price, err := MonteCarloPrice(context.Background(), in, MonteCarloParams{Seed: 1}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, price, 1e-12)
}

func TestMonteCarloInvalidInput(t *testing.T) {
	in := atmCall()
	in.TimeToExpiry = -1
	_, err := MonteCarloPrice(context.Background(), in, MonteCarloParams{Seed: 1}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMonteCarloFewerSamplesThanWorkers(t *testing.T) {
	params := MonteCarloParams{Samples: 3, Seed: 5, Workers: 8}
	price, err := MonteCarloPrice(context.Background(), atmCall(), params, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, price, 0.0)
}
