package domain

import (
	"fmt"
	"math"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// ScenarioShock 单个压力场景：现价与波动率的相对偏移
type ScenarioShock struct {
	Name      string  `json:"name"`
	SpotShift float64 `json:"spot_shift"` // e.g. -0.15 表示现价下移 15%
	VolShift  float64 `json:"vol_shift"`  // e.g. +0.25 表示波动率上移 25%
}

// ScenarioGrid 压力场景网格
type ScenarioGrid struct {
	Shocks  []ScenarioShock
	Epsilon float64
}

// DefaultScenarioGrid 标准网格：现价 0/±5/±10/±15%，波动率 0/±25%
// 基准场景 (0, 0) 始终包含，保证最坏损失非负
func DefaultScenarioGrid(epsilon float64) ScenarioGrid {
	spotShifts := []float64{-0.15, -0.10, -0.05, 0, 0.05, 0.10, 0.15}
	volShifts := []float64{-0.25, 0, 0.25}

	shocks := make([]ScenarioShock, 0, len(spotShifts)*len(volShifts))
	for _, ss := range spotShifts {
		for _, vs := range volShifts {
			shocks = append(shocks, ScenarioShock{
				Name:      fmt.Sprintf("spot%+.0f%%/vol%+.0f%%", ss*100, vs*100),
				SpotShift: ss,
				VolShift:  vs,
			})
		}
	}
	return ScenarioGrid{Shocks: shocks, Epsilon: epsilon}
}

// WorstLoss 对组合逐场景重估值，返回网格中的最大损失
// 网格含基准场景时结果必然非负
func (g ScenarioGrid) WorstLoss(legs []PositionLeg) (float64, error) {
	if len(legs) == 0 {
		return 0, fmt.Errorf("%w: no legs to stress", pricing.ErrInvalidInput)
	}
	if len(g.Shocks) == 0 {
		return 0, fmt.Errorf("%w: empty scenario grid", pricing.ErrInvalidInput)
	}

	basePrices := make([]float64, len(legs))
	for i, leg := range legs {
		price, err := pricing.BlackScholesPrice(leg.Input, g.Epsilon)
		if err != nil {
			return 0, fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
		}
		basePrices[i] = price
	}

	worst := math.Inf(-1)
	for _, shock := range g.Shocks {
		var pnl float64
		for i, leg := range legs {
			trial := leg.Input
			trial.SpotPrice = leg.Input.SpotPrice * (1 + shock.SpotShift)
			trial.Volatility = leg.Input.Volatility * (1 + shock.VolShift)
			price, err := pricing.BlackScholesPrice(trial, g.Epsilon)
			if err != nil {
				return 0, fmt.Errorf("leg %s scenario %s: %w", leg.Position.ContractID, shock.Name, err)
			}
			pnl += leg.exposure() * (price - basePrices[i])
		}
		if loss := -pnl; loss > worst {
			worst = loss
		}
	}
	return math.Max(0, worst), nil
}
