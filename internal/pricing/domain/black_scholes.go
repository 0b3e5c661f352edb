package domain

import (
	"fmt"
	"math"
)

// d1d2 计算 Black-Scholes 中间量
// 调用方保证 input 已通过校验且未到期
func d1d2(in PricingInput) (float64, float64) {
	volSqrtT := in.Volatility * math.Sqrt(in.TimeToExpiry)
	d1 := (math.Log(in.SpotPrice/in.StrikePrice) + (in.RiskFreeRate+0.5*in.Volatility*in.Volatility)*in.TimeToExpiry) / volSqrtT
	return d1, d1 - volSqrtT
}

// BlackScholesPrice 计算欧式期权的 Black-Scholes 理论价格
// 剩余期限低于下限时直接返回内在价值，避免除零
func BlackScholesPrice(in PricingInput, epsilon float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.IsExpired(epsilon) {
		return in.IntrinsicValue(), nil
	}

	d1, d2 := d1d2(in)
	discount := math.Exp(-in.RiskFreeRate * in.TimeToExpiry)

	if in.OptionType == OptionTypeCall {
		return in.SpotPrice*NormalCDF(d1) - in.StrikePrice*discount*NormalCDF(d2), nil
	}
	return in.StrikePrice*discount*NormalCDF(-d2) - in.SpotPrice*NormalCDF(-d1), nil
}

// ImpliedVolatility 用牛顿法从市场价格反推隐含波动率
func ImpliedVolatility(in PricingInput, marketPrice float64, epsilon float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.IsExpired(epsilon) {
		return 0, fmt.Errorf("%w: cannot imply volatility for expired contract", ErrInvalidInput)
	}
	if marketPrice < in.IntrinsicValue() {
		return 0, fmt.Errorf("%w: market price %v below intrinsic value", ErrInvalidInput, marketPrice)
	}

	const (
		tolerance     = 1e-6
		maxIterations = 100
		minVega       = 1e-12
	)

	sigma := 0.3 // 初始猜测
	for range maxIterations {
		trial := in
		trial.Volatility = sigma

		price, err := BlackScholesPrice(trial, epsilon)
		if err != nil {
			return 0, err
		}
		diff := price - marketPrice
		if math.Abs(diff) < tolerance {
			return sigma, nil
		}

		d1, _ := d1d2(trial)
		vega := trial.SpotPrice * math.Sqrt(trial.TimeToExpiry) * NormalPDF(d1)
		if vega < minVega {
			break
		}

		sigma -= diff / vega
		if sigma <= 0 {
			sigma = 1e-3
		}
	}
	return 0, fmt.Errorf("%w: implied volatility did not converge", ErrNumericalInstability)
}
