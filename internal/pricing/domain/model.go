package domain

import (
	"context"
	"fmt"
)

// PricingModel 定价模型
// 封闭枚举：所有调用点经由 Price 统一分发，未知取值直接报错
type PricingModel string

const (
	ModelBlackScholes  PricingModel = "BLACK_SCHOLES"  // 闭式解
	ModelBinomial      PricingModel = "BINOMIAL"       // 二叉树
	ModelMonteCarlo    PricingModel = "MONTE_CARLO"    // 蒙特卡洛模拟
	ModelStochasticVol PricingModel = "STOCHASTIC_VOL" // 随机波动率近似
)

// ParsePricingModel 解析模型标识
func ParsePricingModel(s string) (PricingModel, error) {
	switch PricingModel(s) {
	case ModelBlackScholes, ModelBinomial, ModelMonteCarlo, ModelStochasticVol:
		return PricingModel(s), nil
	}
	return "", fmt.Errorf("%w: unknown pricing model %q", ErrInvalidInput, s)
}

// ModelParams 模型参数
// 零值字段在各模型内部回退到默认值
type ModelParams struct {
	Steps     int     // 二叉树步数
	American  bool    // 二叉树是否允许提前行权
	Samples   int     // 蒙特卡洛采样数
	Seed      uint64  // 蒙特卡洛随机种子 (0 表示按时间播种)
	Workers   int     // 蒙特卡洛并行度
	BatchSize int     // 蒙特卡洛批大小 (批间检查取消)
	VolOfVol  float64 // 随机波动率模型的波动率之波动率
	Epsilon   float64 // 到期时间下限 (0 表示 DefaultExpiryEpsilon)
}

// Price 统一定价入口，按模型穷举分发
func Price(ctx context.Context, model PricingModel, input PricingInput, params ModelParams) (*Premium, error) {
	var (
		value float64
		err   error
	)
	switch model {
	case ModelBlackScholes:
		value, err = BlackScholesPrice(input, params.Epsilon)
	case ModelBinomial:
		value, err = BinomialPrice(input, params.Steps, params.American, params.Epsilon)
	case ModelMonteCarlo:
		value, err = MonteCarloPrice(ctx, input, MonteCarloParams{
			Samples:   params.Samples,
			Seed:      params.Seed,
			Workers:   params.Workers,
			BatchSize: params.BatchSize,
		}, params.Epsilon)
	case ModelStochasticVol:
		value, err = StochasticVolPrice(input, params.VolOfVol, params.Epsilon)
	default:
		return nil, fmt.Errorf("%w: unknown pricing model %q", ErrInvalidInput, model)
	}
	if err != nil {
		return nil, err
	}
	return newPremium(value, model)
}
