package domain

import (
	"fmt"
	"math"
)

// StochasticVolPrice 随机波动率近似定价
// Hull-White (1987) 式混合近似：将波动率视为对数正态的随机状态，
// 在 {σe^{-ν√T}, σ, σe^{+ν√T}} 三个状态上按 Simpson 权重 1:4:1 平均
// Black-Scholes 价格。ν 为波动率之波动率，ν = 0 时退化为 Black-Scholes。
// 这是近似而非完整的 Heston 解。
func StochasticVolPrice(in PricingInput, volOfVol float64, epsilon float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if volOfVol < 0 {
		return 0, fmt.Errorf("%w: vol-of-vol must not be negative, got %v", ErrInvalidInput, volOfVol)
	}
	if in.IsExpired(epsilon) {
		return in.IntrinsicValue(), nil
	}
	if volOfVol == 0 {
		return BlackScholesPrice(in, epsilon)
	}

	spread := volOfVol * math.Sqrt(in.TimeToExpiry)
	states := [3]float64{
		in.Volatility * math.Exp(-spread),
		in.Volatility,
		in.Volatility * math.Exp(spread),
	}
	weights := [3]float64{1, 4, 1}

	var sum, weightTotal float64
	for i, vol := range states {
		trial := in
		trial.Volatility = vol
		price, err := BlackScholesPrice(trial, epsilon)
		if err != nil {
			return 0, err
		}
		sum += weights[i] * price
		weightTotal += weights[i]
	}
	return sum / weightTotal, nil
}
