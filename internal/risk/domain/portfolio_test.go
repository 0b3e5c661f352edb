package domain

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

func btcCallInput() pricing.PricingInput {
	return pricing.PricingInput{
		SpotPrice:    100,
		StrikePrice:  100,
		TimeToExpiry: 1,
		RiskFreeRate: 0.05,
		Volatility:   0.2,
		OptionType:   pricing.OptionTypeCall,
	}
}

func testLeg(id string, qty float64, in pricing.PricingInput) PositionLeg {
	return PositionLeg{
		Position: Position{ContractID: id, Quantity: decimal.NewFromFloat(qty)},
		Contract: OptionContract{
			Symbol:       id,
			Underlying:   "BTC",
			StrikePrice:  decimal.NewFromFloat(in.StrikePrice),
			ContractSize: decimal.NewFromInt(1),
			Type:         in.OptionType,
		},
		Input: in,
	}
}

func TestAggregateSingleLongCall(t *testing.T) {
	legs := []PositionLeg{testLeg("c1", 1, btcCallInput())}

	snapshot, err := Aggregate(context.Background(), legs, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6368, snapshot.TotalDelta.InexactFloat64(), 1e-3)
	assert.Greater(t, snapshot.TotalGamma.InexactFloat64(), 0.0)
	assert.Greater(t, snapshot.TotalVega.InexactFloat64(), 0.0)
	assert.False(t, snapshot.CalculatedAt.IsZero())
}

func TestAggregateSignedExposure(t *testing.T) {
	// 多空各一手同一合约，组合希腊字母应完全抵消
	legs := []PositionLeg{
		testLeg("c1", 1, btcCallInput()),
		testLeg("c1", -1, btcCallInput()),
	}

	snapshot, err := Aggregate(context.Background(), legs, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, snapshot.TotalDelta.InexactFloat64(), 1e-12)
	assert.InDelta(t, 0, snapshot.TotalGamma.InexactFloat64(), 1e-12)
	assert.InDelta(t, 0, snapshot.TotalVega.InexactFloat64(), 1e-12)
}

func TestAggregateContractSizeScalesExposure(t *testing.T) {
	leg := testLeg("c1", 2, btcCallInput())
	leg.Contract.ContractSize = decimal.NewFromInt(10)

	snapshot, err := Aggregate(context.Background(), []PositionLeg{leg}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6368*20, snapshot.TotalDelta.InexactFloat64(), 0.05)
}

func TestAggregateOneBadLegFailsAll(t *testing.T) {
	bad := btcCallInput()
	bad.Volatility = 0
	legs := []PositionLeg{
		testLeg("c1", 1, btcCallInput()),
		testLeg("c2", 1, bad),
	}

	snapshot, err := Aggregate(context.Background(), legs, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	assert.ErrorContains(t, err, "c2")
	assert.Nil(t, snapshot)
}

func TestAggregateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	legs := []PositionLeg{testLeg("c1", 1, btcCallInput())}
	_, err := Aggregate(ctx, legs, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregateNoLegs(t *testing.T) {
	_, err := Aggregate(context.Background(), nil, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestAggregateInconsistentSpots(t *testing.T) {
	other := btcCallInput()
	other.SpotPrice = 101
	legs := []PositionLeg{
		testLeg("c1", 1, btcCallInput()),
		testLeg("c2", 1, other),
	}

	_, err := Aggregate(context.Background(), legs, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestValidateStrategyDeltaLimit(t *testing.T) {
	s := &Strategy{
		StrategyID: "s1",
		Underlying: "BTC",
		Legs:       []PositionLeg{testLeg("c1", 1, btcCallInput())},
		RiskLimits: RiskLimits{MaxDelta: 0.5},
	}

	snapshot, err := ValidateStrategy(context.Background(), s, 0)
	assert.ErrorIs(t, err, ErrRiskLimitExceeded)
	require.NotNil(t, snapshot)
	assert.Greater(t, snapshot.TotalDelta.InexactFloat64(), 0.5)
}

func TestValidateStrategyWithinLimits(t *testing.T) {
	s := &Strategy{
		StrategyID: "s1",
		Underlying: "BTC",
		Legs:       []PositionLeg{testLeg("c1", 1, btcCallInput())},
		RiskLimits: RiskLimits{MaxDelta: 2},
	}

	snapshot, err := ValidateStrategy(context.Background(), s, 0)
	require.NoError(t, err)
	assert.NotNil(t, snapshot)
}

func TestValidateStrategyZeroLegs(t *testing.T) {
	s := &Strategy{StrategyID: "empty", Underlying: "BTC"}

	_, err := ValidateStrategy(context.Background(), s, 0)
	assert.ErrorIs(t, err, ErrRiskLimitExceeded)
}

func TestValidateStrategyUnderlyingMismatch(t *testing.T) {
	leg := testLeg("c1", 1, btcCallInput())
	leg.Contract.Underlying = "ETH"
	s := &Strategy{StrategyID: "s1", Underlying: "BTC", Legs: []PositionLeg{leg}}

	_, err := ValidateStrategy(context.Background(), s, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}
