package domain

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/algorithm"
	"golang.org/x/sync/errgroup"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// VaR 模拟默认参数
const (
	DefaultVaRSimulations = 10000
	DefaultVaRHorizon     = 1.0 / 252 // 1 个交易日
	DefaultVaRConfidence  = 0.95
	defaultVaRWorkers     = 4
	defaultVaRBatchSize   = 1024
)

// VaRConfig 组合 VaR 模拟配置
// Correlations 为空时各标的冲击独立 (单位相关矩阵)
type VaRConfig struct {
	Simulations  int
	Horizon      float64     // 持有期 (年)
	Confidence   float64     // e.g. 0.95
	Correlations [][]float64 // 标的间相关系数矩阵，按标的首次出现顺序
	Seed         uint64      // 0 表示按当前时间播种
	Workers      int
	BatchSize    int
	Epsilon      float64
}

func (c VaRConfig) withDefaults() VaRConfig {
	if c.Simulations <= 0 {
		c.Simulations = DefaultVaRSimulations
	}
	if c.Horizon <= 0 {
		c.Horizon = DefaultVaRHorizon
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		c.Confidence = DefaultVaRConfidence
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.Workers <= 0 {
		c.Workers = defaultVaRWorkers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultVaRBatchSize
	}
	return c
}

// VaRResult VaR 模拟结果
// 损失以正数表示
type VaRResult struct {
	ValueAtRisk       decimal.Decimal `json:"value_at_risk"`
	ExpectedShortfall decimal.Decimal `json:"expected_shortfall"`
	Confidence        float64         `json:"confidence"`
	Simulations       int             `json:"simulations"`
}

// underlyingState 模拟中单个标的的状态
type underlyingState struct {
	symbol string
	spot   float64
	vol    float64
	drift  float64
}

// SimulateVaR 用关联蒙特卡洛对整个组合做全量重估值，估计 VaR 与 ES
// 每次模拟对各标的采样联合价格冲击 (经 Cholesky 关联)，将每条腿在冲击后的
// 现价与扣除持有期后的剩余期限下重新定价，组合损益排序后取分位数：
// VaR = 置信度分位损失，ES = 尾部平均损失。Simulations 可小至 1 (退化情形)。
func SimulateVaR(ctx context.Context, legs []PositionLeg, cfg VaRConfig) (*VaRResult, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: no legs to simulate", pricing.ErrInvalidInput)
	}
	if err := checkConsistentSpots(legs); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	// 标的按首次出现顺序建档
	states, legIndex, err := buildUnderlyingStates(legs, cfg.Horizon)
	if err != nil {
		return nil, err
	}
	n := len(states)

	// 协方差矩阵 Cov(i,j) = rho(i,j) * σi * σj * τ，Cholesky 分解出关联因子
	if cfg.Correlations != nil && len(cfg.Correlations) != n {
		return nil, fmt.Errorf("%w: correlation matrix dimension %d does not match %d underlyings",
			pricing.ErrInvalidInput, len(cfg.Correlations), n)
	}
	covData := make([][]float64, n)
	for i := range n {
		if cfg.Correlations != nil && len(cfg.Correlations[i]) != n {
			return nil, fmt.Errorf("%w: correlation matrix row %d has %d entries, want %d",
				pricing.ErrInvalidInput, i, len(cfg.Correlations[i]), n)
		}
		covData[i] = make([]float64, n)
		for j := range n {
			rho := 0.0
			if i == j {
				rho = 1.0
			}
			if cfg.Correlations != nil {
				rho = cfg.Correlations[i][j]
			}
			covData[i][j] = rho * states[i].vol * states[j].vol * cfg.Horizon
		}
	}
	covMatrix, err := algorithm.NewMatrixFromData(covData)
	if err != nil {
		return nil, fmt.Errorf("failed to create covariance matrix: %w", err)
	}
	chol, err := covMatrix.Cholesky()
	if err != nil {
		return nil, fmt.Errorf("cholesky decomposition failed: %w", err)
	}

	// 基准价格
	basePrices := make([]float64, len(legs))
	for i, leg := range legs {
		basePrices[i], err = pricing.BlackScholesPrice(leg.Input, cfg.Epsilon)
		if err != nil {
			return nil, fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
		}
	}

	// 按 worker 均分模拟，独立随机流，批间检查取消
	pnls := make([]float64, cfg.Simulations)
	workers := cfg.Workers
	if workers > cfg.Simulations {
		workers = cfg.Simulations
	}
	chunk := (cfg.Simulations + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		start := w * chunk
		end := min(start+chunk, cfg.Simulations)
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(w)))
			z := make([]float64, n)
			shocked := make([]float64, n)
			for s := start; s < end; s++ {
				if (s-start)%cfg.BatchSize == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for i := range n {
					z[i] = pricing.SampleStandardNormal(rng)
				}
				// x = L·z 已含 σ√τ 的尺度
				x, err := chol.MultiplyVector(z)
				if err != nil {
					return fmt.Errorf("correlated shock failed: %w", err)
				}
				for i := range n {
					shocked[i] = states[i].spot * math.Exp(states[i].drift+x[i])
				}

				var pnl float64
				for i, leg := range legs {
					trial := leg.Input
					trial.SpotPrice = shocked[legIndex[i]]
					trial.TimeToExpiry = math.Max(leg.Input.TimeToExpiry-cfg.Horizon, 0)
					price, err := pricing.BlackScholesPrice(trial, cfg.Epsilon)
					if err != nil {
						return fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
					}
					pnl += leg.exposure() * (price - basePrices[i])
				}
				pnls[s] = pnl
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(pnls)

	// 分位数索引，Simulations = 1 时退化为唯一场景
	idx := int(math.Floor(float64(cfg.Simulations) * (1 - cfg.Confidence)))
	if idx >= cfg.Simulations {
		idx = cfg.Simulations - 1
	}
	varValue := -pnls[idx]

	var sumTail float64
	for i := 0; i <= idx; i++ {
		sumTail += pnls[i]
	}
	esValue := -sumTail / float64(idx+1)

	return &VaRResult{
		ValueAtRisk:       decimal.NewFromFloat(math.Max(0, varValue)),
		ExpectedShortfall: decimal.NewFromFloat(math.Max(0, esValue)),
		Confidence:        cfg.Confidence,
		Simulations:       cfg.Simulations,
	}, nil
}

// buildUnderlyingStates 为每个标的建立模拟状态，并记录每条腿对应的标的下标
func buildUnderlyingStates(legs []PositionLeg, horizon float64) ([]underlyingState, []int, error) {
	var states []underlyingState
	index := make(map[string]int)
	legIndex := make([]int, len(legs))

	for i, leg := range legs {
		if err := leg.Input.Validate(); err != nil {
			return nil, nil, fmt.Errorf("leg %s: %w", leg.Position.ContractID, err)
		}
		underlying := leg.Contract.Underlying
		idx, ok := index[underlying]
		if !ok {
			idx = len(states)
			index[underlying] = idx
			vol := leg.Input.Volatility
			states = append(states, underlyingState{
				symbol: underlying,
				spot:   leg.Input.SpotPrice,
				vol:    vol,
				drift:  (leg.Input.RiskFreeRate - 0.5*vol*vol) * horizon,
			})
		}
		legIndex[i] = idx
	}
	return states, legIndex, nil
}
