package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// Methodology 保证金计算方法
type Methodology string

const (
	MethodologyDelta Methodology = "DELTA"
	MethodologyVaR   Methodology = "VAR"
	MethodologySpan  Methodology = "SPAN"
)

// ParseMethodology 解析外部传入的方法标识
func ParseMethodology(s string) (Methodology, error) {
	switch Methodology(s) {
	case MethodologyDelta, MethodologyVaR, MethodologySpan:
		return Methodology(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethodology, s)
	}
}

// DefaultConfidenceMultiplier 将 95% VaR 近似放大到 99% 置信水平
const DefaultConfidenceMultiplier = 1.41

// MarginRequirement 保证金要求
type MarginRequirement struct {
	Methodology  Methodology     `json:"methodology"`
	Amount       decimal.Decimal `json:"amount"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

// MarginCalculator 按指定方法计算组合保证金
// DELTA 按波动率调整后的比例对 delta 敞口收取；
// VAR 按模拟 VaR 乘以置信度放大系数收取；
// SPAN 按压力场景网格的最坏损失收取
type MarginCalculator struct {
	baseRate             float64 // 基础保证金比例
	volatilityMultiplier float64 // 波动率加成系数
	confidenceMultiplier float64
	grid                 ScenarioGrid
	varConfig            VaRConfig
}

func NewMarginCalculator(baseRate, volMultiplier, confidenceMultiplier float64, grid ScenarioGrid, varCfg VaRConfig) *MarginCalculator {
	if confidenceMultiplier <= 0 {
		confidenceMultiplier = DefaultConfidenceMultiplier
	}
	return &MarginCalculator{
		baseRate:             baseRate,
		volatilityMultiplier: volMultiplier,
		confidenceMultiplier: confidenceMultiplier,
		grid:                 grid,
		varConfig:            varCfg,
	}
}

// Calculate 计算保证金，未注册的方法返回 ErrInvalidMethodology
func (c *MarginCalculator) Calculate(ctx context.Context, methodology Methodology, legs []PositionLeg) (*MarginRequirement, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: no legs to margin", pricing.ErrInvalidInput)
	}

	var amount float64
	var err error
	switch methodology {
	case MethodologyDelta:
		amount, err = c.deltaMargin(legs)
	case MethodologyVaR:
		amount, err = c.varMargin(ctx, legs)
	case MethodologySpan:
		amount, err = c.grid.WorstLoss(legs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethodology, methodology)
	}
	if err != nil {
		return nil, err
	}

	return &MarginRequirement{
		Methodology:  methodology,
		Amount:       decimal.NewFromFloat(amount),
		CalculatedAt: time.Now(),
	}, nil
}

// deltaMargin 按标的净额 delta 收取 |totalDelta| × 现价 × 动态比例
// 同一标的的多空腿先互相抵消，完全对冲的组合不收 delta 保证金
func (c *MarginCalculator) deltaMargin(legs []PositionLeg) (float64, error) {
	type netExposure struct {
		delta float64
		spot  float64
		vol   float64
	}
	byUnderlying := make(map[string]*netExposure)
	var order []string

	for _, leg := range legs {
		greeks, err := pricing.CalculateGreeks(leg.Input, c.varConfig.Epsilon)
		if err != nil {
			return 0, fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
		}
		underlying := leg.Contract.Underlying
		net, ok := byUnderlying[underlying]
		if !ok {
			net = &netExposure{spot: leg.Input.SpotPrice, vol: leg.Input.Volatility}
			byUnderlying[underlying] = net
			order = append(order, underlying)
		}
		net.delta += greeks.Delta * leg.exposure()
	}

	var total float64
	for _, underlying := range order {
		net := byUnderlying[underlying]
		total += math.Abs(net.delta) * net.spot * c.marginRate(net.vol)
	}
	return total, nil
}

func (c *MarginCalculator) varMargin(ctx context.Context, legs []PositionLeg) (float64, error) {
	result, err := SimulateVaR(ctx, legs, c.varConfig)
	if err != nil {
		return 0, err
	}
	return result.ValueAtRisk.InexactFloat64() * c.confidenceMultiplier, nil
}

// marginRate 波动率调整后的保证金比例，封顶 100%
func (c *MarginCalculator) marginRate(volatility float64) float64 {
	rate := c.baseRate + c.volatilityMultiplier*volatility
	return math.Min(rate, 1.0)
}
