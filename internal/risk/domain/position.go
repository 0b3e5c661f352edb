// Package domain 风险服务的领域模型
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/derivativespricing/internal/pricing/domain"
)

// 错误定义
var (
	ErrRiskLimitExceeded  = errors.New("risk limit exceeded")
	ErrInvalidMethodology = errors.New("invalid margin methodology")
)

// OptionContract 期权合约目录标识
// 由外部目录协作方创建后以值传入，本引擎只读、从不修改
type OptionContract struct {
	Symbol       string             `json:"symbol"`        // e.g. BTC-260327-30000-C
	Underlying   string             `json:"underlying"`    // 标的代码
	StrikePrice  decimal.Decimal    `json:"strike_price"`  // 行权价
	ExpiryDate   time.Time          `json:"expiry_date"`   // 到期日
	ContractSize decimal.Decimal    `json:"contract_size"` // 合约乘数
	Type         pricing.OptionType `json:"type"`
}

// Position 持仓
// 合约通过 ContractID 弱引用，数量带符号 (+多 -空)
type Position struct {
	ContractID string          `json:"contract_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// PositionLeg 解析后的持仓腿
// 行情协作方负责为每条腿解析出已校验的定价输入与合约值对象
type PositionLeg struct {
	Position Position             `json:"position"`
	Contract OptionContract       `json:"contract"`
	Input    pricing.PricingInput `json:"input"`
}

// exposure 腿的签名敞口：数量 × 合约乘数
func (l PositionLeg) exposure() float64 {
	return l.Position.Quantity.Mul(l.Contract.ContractSize).InexactFloat64()
}

// RiskLimits 策略硬性风险上限
// 零值字段表示不设限
type RiskLimits struct {
	MaxDelta float64 `json:"max_delta"` // 聚合 delta 绝对值上限
	MaxVega  float64 `json:"max_vega"`  // 聚合 vega 绝对值上限
}

// Strategy 多腿策略
// 各腿共享同一标的；TargetGreeks 为风险目标，RiskLimits 为硬性上限
type Strategy struct {
	StrategyID   string         `json:"strategy_id"`
	Underlying   string         `json:"underlying"`
	Legs         []PositionLeg  `json:"legs"`
	TargetGreeks pricing.Greeks `json:"target_greeks"`
	RiskLimits   RiskLimits     `json:"risk_limits"`
}

// Validate 结构校验：至少一条腿，且所有腿属于同一标的
func (s *Strategy) Validate() error {
	if len(s.Legs) == 0 {
		return fmt.Errorf("%w: strategy %s has no legs", ErrRiskLimitExceeded, s.StrategyID)
	}
	for _, leg := range s.Legs {
		if s.Underlying != "" && leg.Contract.Underlying != s.Underlying {
			return fmt.Errorf("%w: leg %s underlying %s does not match strategy underlying %s",
				pricing.ErrInvalidInput, leg.Position.ContractID, leg.Contract.Underlying, s.Underlying)
		}
	}
	return nil
}

// CheckLimits 按聚合结果检查硬性上限
func (s *Strategy) CheckLimits(snapshot *PortfolioRiskSnapshot) error {
	delta := snapshot.TotalDelta.InexactFloat64()
	if s.RiskLimits.MaxDelta > 0 && abs(delta) > s.RiskLimits.MaxDelta {
		return fmt.Errorf("%w: aggregated delta %.4f exceeds max delta %.4f",
			ErrRiskLimitExceeded, delta, s.RiskLimits.MaxDelta)
	}
	vega := snapshot.TotalVega.InexactFloat64()
	if s.RiskLimits.MaxVega > 0 && abs(vega) > s.RiskLimits.MaxVega {
		return fmt.Errorf("%w: aggregated vega %.4f exceeds max vega %.4f",
			ErrRiskLimitExceeded, vega, s.RiskLimits.MaxVega)
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
