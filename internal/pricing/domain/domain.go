// Package domain 定价服务的领域模型
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// DefaultExpiryEpsilon 到期时间下限 (年)
// 低于该值的合约按内在价值结算，避免 sqrt(T) -> 0 除零
const DefaultExpiryEpsilon = 1e-8

// 错误定义
var (
	ErrInvalidInput         = errors.New("invalid pricing input")
	ErrNumericalInstability = errors.New("numerical instability detected")
)

// PricingInput 定价输入
// 每次调用由行情协作方提供已校验的市场参数，值传递、不可变
type PricingInput struct {
	SpotPrice    float64    // 标的现价
	StrikePrice  float64    // 行权价
	TimeToExpiry float64    // 剩余期限 (年)
	RiskFreeRate float64    // 无风险利率
	Volatility   float64    // 年化波动率
	OptionType   OptionType // CALL / PUT
}

// Validate 校验定价输入
func (in PricingInput) Validate() error {
	switch {
	case in.SpotPrice <= 0:
		return fmt.Errorf("%w: spot price must be positive, got %v", ErrInvalidInput, in.SpotPrice)
	case in.StrikePrice <= 0:
		return fmt.Errorf("%w: strike price must be positive, got %v", ErrInvalidInput, in.StrikePrice)
	case in.TimeToExpiry < 0:
		return fmt.Errorf("%w: time to expiry must not be negative, got %v", ErrInvalidInput, in.TimeToExpiry)
	case in.Volatility <= 0:
		return fmt.Errorf("%w: volatility must be positive, got %v", ErrInvalidInput, in.Volatility)
	}
	if in.OptionType != OptionTypeCall && in.OptionType != OptionTypePut {
		return fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, in.OptionType)
	}
	return nil
}

// IsExpired 剩余期限是否已触及下限
func (in PricingInput) IsExpired(epsilon float64) bool {
	if epsilon <= 0 {
		epsilon = DefaultExpiryEpsilon
	}
	return in.TimeToExpiry < epsilon
}

// IntrinsicValue 内在价值
func (in PricingInput) IntrinsicValue() float64 {
	if in.OptionType == OptionTypeCall {
		return math.Max(0, in.SpotPrice-in.StrikePrice)
	}
	return math.Max(0, in.StrikePrice-in.SpotPrice)
}

// Premium 期权权利金
// Model 字段记录产生该价格的定价模型，用于审计
type Premium struct {
	Value        decimal.Decimal `json:"value"`
	Model        PricingModel    `json:"model"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

// newPremium 封装原始价格并做数值稳定性检查
func newPremium(value float64, model PricingModel) (*Premium, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: model %s produced %v", ErrNumericalInstability, model, value)
	}
	if value < 0 {
		// 浮点误差可能把深度虚值期权压到 0 以下
		value = 0
	}
	return &Premium{
		Value:        decimal.NewFromFloat(value),
		Model:        model,
		CalculatedAt: time.Now(),
	}, nil
}
