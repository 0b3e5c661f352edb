package domain

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
)

// 蒙特卡洛默认参数
const (
	DefaultMonteCarloSamples = 100000
	DefaultMonteCarloWorkers = 4
	defaultBatchSize         = 4096
)

// MonteCarloParams 蒙特卡洛模拟参数
// Seed 与 Workers 共同决定输出：worker i 使用 PCG(Seed, i) 独立随机流，
// 相同 (Seed, Workers) 组合的结果完全可复现
type MonteCarloParams struct {
	Samples   int
	Seed      uint64 // 0 表示按当前时间播种
	Workers   int
	BatchSize int // 每批样本数，批间检查取消信号
}

func (p MonteCarloParams) withDefaults() MonteCarloParams {
	if p.Samples <= 0 {
		p.Samples = DefaultMonteCarloSamples
	}
	if p.Seed == 0 {
		p.Seed = uint64(time.Now().UnixNano())
	}
	if p.Workers <= 0 {
		p.Workers = DefaultMonteCarloWorkers
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultBatchSize
	}
	return p
}

// MonteCarloPrice 用蒙特卡洛模拟计算欧式期权价格
// 终端价 S_T = S * exp((r - σ²/2)T + σ√T·Z)，价格为贴现后的收益均值
// 统计误差随样本数按 O(1/√N) 收敛
func MonteCarloPrice(ctx context.Context, in PricingInput, params MonteCarloParams, epsilon float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.IsExpired(epsilon) {
		return in.IntrinsicValue(), nil
	}
	params = params.withDefaults()

	drift := (in.RiskFreeRate - 0.5*in.Volatility*in.Volatility) * in.TimeToExpiry
	volSqrtT := in.Volatility * math.Sqrt(in.TimeToExpiry)

	// 按 worker 均分样本，各自持有独立随机流与局部和，结束后合并
	workers := params.Workers
	if workers > params.Samples {
		workers = params.Samples
	}
	counts := make([]int, workers)
	for i := range counts {
		counts[i] = params.Samples / workers
	}
	counts[0] += params.Samples % workers

	sums := make([]float64, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(params.Seed, uint64(w)))
			var sum float64
			remaining := counts[w]
			for remaining > 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				batch := min(remaining, params.BatchSize)
				for range batch {
					z := SampleStandardNormal(rng)
					terminal := in.SpotPrice * math.Exp(drift+volSqrtT*z)
					sum += payoff(in.OptionType, terminal, in.StrikePrice)
				}
				remaining -= batch
			}
			sums[w] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, s := range sums {
		total += s
	}
	mean := total / float64(params.Samples)
	return math.Exp(-in.RiskFreeRate*in.TimeToExpiry) * mean, nil
}
