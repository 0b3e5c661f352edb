package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

func newTestService() *PricingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPricingService(logger, 0, domain.ModelParams{
		Steps:   200,
		Samples: 50000,
		Workers: 2,
		Seed:    17,
	})
}

func callInput() domain.PricingInput {
	return domain.PricingInput{
		SpotPrice:    100,
		StrikePrice:  100,
		TimeToExpiry: 1,
		RiskFreeRate: 0.05,
		Volatility:   0.2,
		OptionType:   domain.OptionTypeCall,
	}
}

func TestPriceOption(t *testing.T) {
	svc := newTestService()

	premium, err := svc.PriceOption(context.Background(), PriceOptionCommand{
		Model: "BLACK_SCHOLES",
		Input: callInput(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, premium.Value.InexactFloat64(), 1e-3)
	assert.Equal(t, domain.ModelBlackScholes, premium.Model)
}

func TestPriceOptionAppliesDefaults(t *testing.T) {
	svc := newTestService()

	// 请求未携带模拟参数时回落到服务级默认，结果可复现
	first, err := svc.PriceOption(context.Background(), PriceOptionCommand{
		Model: "MONTE_CARLO",
		Input: callInput(),
	})
	require.NoError(t, err)
	second, err := svc.PriceOption(context.Background(), PriceOptionCommand{
		Model: "MONTE_CARLO",
		Input: callInput(),
	})
	require.NoError(t, err)
	assert.True(t, first.Value.Equal(second.Value))
}

func TestPriceOptionUnknownModel(t *testing.T) {
	svc := newTestService()

	_, err := svc.PriceOption(context.Background(), PriceOptionCommand{
		Model: "TRINOMIAL",
		Input: callInput(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalculateGreeks(t *testing.T) {
	svc := newTestService()

	greeks, err := svc.CalculateGreeks(context.Background(), callInput())
	require.NoError(t, err)
	assert.InDelta(t, 0.6368, greeks.Delta, 1e-3)
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	svc := newTestService()

	price, err := domain.BlackScholesPrice(callInput(), 0)
	require.NoError(t, err)

	guess := callInput()
	guess.Volatility = 0.5
	vol, err := svc.ImpliedVolatility(context.Background(), guess, price)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, vol, 1e-4)
}
