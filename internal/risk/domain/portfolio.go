package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// aggregateWorkers 聚合折叠的并行度
const aggregateWorkers = 4

// PortfolioRiskSnapshot 组合风险快照
// 按需重算，从不跨过期行情静默缓存；快照内所有腿基于同一时点的行情输入
type PortfolioRiskSnapshot struct {
	TotalDelta          decimal.Decimal `json:"total_delta"`
	TotalGamma          decimal.Decimal `json:"total_gamma"`
	TotalTheta          decimal.Decimal `json:"total_theta"`
	TotalVega           decimal.Decimal `json:"total_vega"`
	TotalRho            decimal.Decimal `json:"total_rho"`
	ValueAtRisk95       decimal.Decimal `json:"value_at_risk_95"`
	ExpectedShortfall95 decimal.Decimal `json:"expected_shortfall_95"`
	CalculatedAt        time.Time       `json:"calculated_at"`
}

// greeksTotals 聚合中间量，float64 局部和
type greeksTotals struct {
	delta, gamma, theta, vega, rho float64
}

func (t *greeksTotals) add(o greeksTotals) {
	t.delta += o.delta
	t.gamma += o.gamma
	t.theta += o.theta
	t.vega += o.vega
	t.rho += o.rho
}

// Aggregate 将各腿希腊字母按签名敞口折叠为组合总量
// 折叠满足结合律与交换律：按分片并行计算局部和后合并
// 任何一条腿输入非法都会使整个聚合失败，不返回缺腿的部分结果
func Aggregate(ctx context.Context, legs []PositionLeg, epsilon float64) (*PortfolioRiskSnapshot, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: no legs to aggregate", pricing.ErrInvalidInput)
	}
	if err := checkConsistentSpots(legs); err != nil {
		return nil, err
	}

	workers := aggregateWorkers
	if workers > len(legs) {
		workers = len(legs)
	}
	chunk := (len(legs) + workers - 1) / workers

	partials := make([]greeksTotals, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		start := w * chunk
		end := min(start+chunk, len(legs))
		g.Go(func() error {
			var totals greeksTotals
			for _, leg := range legs[start:end] {
				if err := gctx.Err(); err != nil {
					return err
				}
				greeks, err := pricing.CalculateGreeks(leg.Input, epsilon)
				if err != nil {
					return fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
				}
				exp := leg.exposure()
				totals.add(greeksTotals{
					delta: greeks.Delta * exp,
					gamma: greeks.Gamma * exp,
					theta: greeks.Theta * exp,
					vega:  greeks.Vega * exp,
					rho:   greeks.Rho * exp,
				})
			}
			partials[w] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var totals greeksTotals
	for _, p := range partials {
		totals.add(p)
	}

	return &PortfolioRiskSnapshot{
		TotalDelta:   decimal.NewFromFloat(totals.delta),
		TotalGamma:   decimal.NewFromFloat(totals.gamma),
		TotalTheta:   decimal.NewFromFloat(totals.theta),
		TotalVega:    decimal.NewFromFloat(totals.vega),
		TotalRho:     decimal.NewFromFloat(totals.rho),
		CalculatedAt: time.Now(),
	}, nil
}

// ValidateStrategy 校验策略并返回其聚合快照
// 结构非法、任一腿输入非法或突破硬性上限都会失败
func ValidateStrategy(ctx context.Context, s *Strategy, epsilon float64) (*PortfolioRiskSnapshot, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	snapshot, err := Aggregate(ctx, s.Legs, epsilon)
	if err != nil {
		return nil, err
	}
	if err := s.CheckLimits(snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// checkConsistentSpots 同一标的的各腿必须引用同一现价
// 混用不同时点的行情会产生内部矛盾的快照
func checkConsistentSpots(legs []PositionLeg) error {
	spots := make(map[string]float64, len(legs))
	for _, leg := range legs {
		underlying := leg.Contract.Underlying
		if prev, ok := spots[underlying]; ok {
			if prev != leg.Input.SpotPrice {
				return fmt.Errorf("%w: underlying %s quoted at both %v and %v in one snapshot",
					pricing.ErrInvalidInput, underlying, prev, leg.Input.SpotPrice)
			}
			continue
		}
		spots[underlying] = leg.Input.SpotPrice
	}
	return nil
}
