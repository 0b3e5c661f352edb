// Package application 定价服务的应用层
package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// PricingService 定价用例编排
// 领域层保持纯函数，应用层负责默认参数与日志
type PricingService struct {
	logger   *slog.Logger
	epsilon  float64
	defaults domain.ModelParams
}

func NewPricingService(logger *slog.Logger, epsilon float64, defaults domain.ModelParams) *PricingService {
	if epsilon <= 0 {
		epsilon = domain.DefaultExpiryEpsilon
	}
	return &PricingService{
		logger:   logger,
		epsilon:  epsilon,
		defaults: defaults,
	}
}

// PriceOptionCommand 定价请求
// Params 中的零值字段回落到服务级默认值
type PriceOptionCommand struct {
	Model  string
	Input  domain.PricingInput
	Params domain.ModelParams
}

func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*domain.Premium, error) {
	model, err := domain.ParsePricingModel(cmd.Model)
	if err != nil {
		return nil, err
	}

	params := s.mergeParams(cmd.Params)
	premium, err := domain.Price(ctx, model, cmd.Input, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "option pricing failed",
			"model", model, "spot", cmd.Input.SpotPrice, "strike", cmd.Input.StrikePrice, "error", err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "option priced",
		"model", model, "premium", premium.Value.String())
	return premium, nil
}

// CalculateGreeks 计算单腿希腊字母
func (s *PricingService) CalculateGreeks(ctx context.Context, input domain.PricingInput) (domain.Greeks, error) {
	greeks, err := domain.CalculateGreeks(input, s.epsilon)
	if err != nil {
		s.logger.ErrorContext(ctx, "greeks calculation failed",
			"spot", input.SpotPrice, "strike", input.StrikePrice, "error", err)
		return domain.Greeks{}, err
	}
	return greeks, nil
}

// ImpliedVolatility 从市场价反解隐含波动率
// Input.Volatility 仅作为迭代初值
func (s *PricingService) ImpliedVolatility(ctx context.Context, input domain.PricingInput, marketPrice float64) (float64, error) {
	vol, err := domain.ImpliedVolatility(input, marketPrice, s.epsilon)
	if err != nil {
		s.logger.ErrorContext(ctx, "implied volatility failed",
			"market_price", marketPrice, "error", err)
		return 0, err
	}
	return vol, nil
}

func (s *PricingService) mergeParams(p domain.ModelParams) domain.ModelParams {
	if p.Steps <= 0 {
		p.Steps = s.defaults.Steps
	}
	if p.Samples <= 0 {
		p.Samples = s.defaults.Samples
	}
	if p.Workers <= 0 {
		p.Workers = s.defaults.Workers
	}
	if p.BatchSize <= 0 {
		p.BatchSize = s.defaults.BatchSize
	}
	if p.Seed == 0 {
		p.Seed = s.defaults.Seed
	}
	if p.VolOfVol == 0 {
		p.VolOfVol = s.defaults.VolOfVol
	}
	if p.Epsilon <= 0 {
		p.Epsilon = s.epsilon
	}
	return p
}
