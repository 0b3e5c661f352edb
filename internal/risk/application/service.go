// Package application 风险服务的应用层
package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/derivativespricing/internal/risk/domain"
)

// RiskService 风险用例编排
type RiskService struct {
	logger      *slog.Logger
	epsilon     float64
	margin      *domain.MarginCalculator
	varDefaults domain.VaRConfig
}

func NewRiskService(logger *slog.Logger, epsilon float64, margin *domain.MarginCalculator, varDefaults domain.VaRConfig) *RiskService {
	return &RiskService{
		logger:      logger,
		epsilon:     epsilon,
		margin:      margin,
		varDefaults: varDefaults,
	}
}

// AggregatePortfolio 聚合组合希腊字母并附带默认配置下的 VaR/ES
func (s *RiskService) AggregatePortfolio(ctx context.Context, legs []domain.PositionLeg) (*domain.PortfolioRiskSnapshot, error) {
	snapshot, err := domain.Aggregate(ctx, legs, s.epsilon)
	if err != nil {
		s.logger.ErrorContext(ctx, "portfolio aggregation failed", "legs", len(legs), "error", err)
		return nil, err
	}

	varResult, err := domain.SimulateVaR(ctx, legs, s.varDefaults)
	if err != nil {
		s.logger.ErrorContext(ctx, "portfolio var simulation failed", "legs", len(legs), "error", err)
		return nil, err
	}
	snapshot.ValueAtRisk95 = varResult.ValueAtRisk
	snapshot.ExpectedShortfall95 = varResult.ExpectedShortfall

	s.logger.DebugContext(ctx, "portfolio aggregated",
		"legs", len(legs),
		"total_delta", snapshot.TotalDelta.String(),
		"var_95", snapshot.ValueAtRisk95.String())
	return snapshot, nil
}

// ValidateStrategy 策略准入校验
// 突破硬性上限时同时返回快照与 ErrRiskLimitExceeded，便于调用方呈现细节
func (s *RiskService) ValidateStrategy(ctx context.Context, strategy *domain.Strategy) (*domain.PortfolioRiskSnapshot, error) {
	snapshot, err := domain.ValidateStrategy(ctx, strategy, s.epsilon)
	if err != nil {
		s.logger.WarnContext(ctx, "strategy validation failed",
			"strategy_id", strategy.StrategyID, "error", err)
		return snapshot, err
	}
	return snapshot, nil
}

// SimulateVaR 按请求配置模拟 VaR，零值字段回落到服务级默认
func (s *RiskService) SimulateVaR(ctx context.Context, legs []domain.PositionLeg, cfg domain.VaRConfig) (*domain.VaRResult, error) {
	cfg = s.mergeVaRConfig(cfg)
	result, err := domain.SimulateVaR(ctx, legs, cfg)
	if err != nil {
		s.logger.ErrorContext(ctx, "var simulation failed", "legs", len(legs), "error", err)
		return nil, err
	}
	return result, nil
}

// CalculateMargin 按指定方法计算保证金
func (s *RiskService) CalculateMargin(ctx context.Context, methodology string, legs []domain.PositionLeg) (*domain.MarginRequirement, error) {
	m, err := domain.ParseMethodology(methodology)
	if err != nil {
		return nil, err
	}

	req, err := s.margin.Calculate(ctx, m, legs)
	if err != nil {
		s.logger.ErrorContext(ctx, "margin calculation failed",
			"methodology", m, "legs", len(legs), "error", err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "margin calculated",
		"methodology", m, "amount", req.Amount.String())
	return req, nil
}

func (s *RiskService) mergeVaRConfig(cfg domain.VaRConfig) domain.VaRConfig {
	if cfg.Simulations <= 0 {
		cfg.Simulations = s.varDefaults.Simulations
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = s.varDefaults.Horizon
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = s.varDefaults.Confidence
	}
	if cfg.Workers <= 0 {
		cfg.Workers = s.varDefaults.Workers
	}
	if cfg.Seed == 0 {
		cfg.Seed = s.varDefaults.Seed
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = s.epsilon
	}
	return cfg
}
