package domain

import (
	"math"
)

// DefaultBinomialSteps 二叉树默认步数
const DefaultBinomialSteps = 200

// BinomialPrice 用 CRR 二叉树计算期权价格
// 构造重组格：u = e^{σ√Δt}, d = 1/u, 风险中性概率 p = (e^{rΔt} - d)/(u - d)
// 从终端收益逐层贴现回根节点；american 为真时每个节点取行权价值与持有价值的较大者
func BinomialPrice(in PricingInput, steps int, american bool, epsilon float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.IsExpired(epsilon) {
		return in.IntrinsicValue(), nil
	}
	if steps <= 0 {
		steps = DefaultBinomialSteps
	}

	dt := in.TimeToExpiry / float64(steps)
	u := math.Exp(in.Volatility * math.Sqrt(dt))
	d := 1 / u
	growth := math.Exp(in.RiskFreeRate * dt)
	p := (growth - d) / (u - d)
	discount := 1 / growth

	// 终端节点收益，自最低价节点向上
	values := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		spot := in.SpotPrice * math.Pow(u, float64(2*i-steps))
		values[i] = payoff(in.OptionType, spot, in.StrikePrice)
	}

	// 逐层回溯贴现
	for step := steps - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			held := discount * (p*values[i+1] + (1-p)*values[i])
			if american {
				spot := in.SpotPrice * math.Pow(u, float64(2*i-step))
				held = math.Max(held, payoff(in.OptionType, spot, in.StrikePrice))
			}
			values[i] = held
		}
	}
	return values[0], nil
}

// payoff 行权收益
func payoff(optionType OptionType, spot, strike float64) float64 {
	if optionType == OptionTypeCall {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}
