package domain

import (
	"math"
)

// Greeks 希腊字母
// delta→现价, gamma→delta 的现价敏感度, theta→时间, vega→波动率, rho→利率
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// CalculateGreeks 从 Black-Scholes 的 d1/d2 解析计算希腊字母
// 与定价模型无关：无论权利金由哪个模型产生，敏感度均按同一闭式解求取
// 剩余期限触及下限时 gamma/vega/theta/rho 归零而非发散，delta 退化为内在价值指示
func CalculateGreeks(in PricingInput, epsilon float64) (Greeks, error) {
	if err := in.Validate(); err != nil {
		return Greeks{}, err
	}
	if in.IsExpired(epsilon) {
		return expiredGreeks(in), nil
	}

	d1, d2 := d1d2(in)
	sqrtT := math.Sqrt(in.TimeToExpiry)
	pdfD1 := NormalPDF(d1)
	discount := math.Exp(-in.RiskFreeRate * in.TimeToExpiry)

	g := Greeks{
		Gamma: pdfD1 / (in.SpotPrice * in.Volatility * sqrtT),
		Vega:  in.SpotPrice * sqrtT * pdfD1,
	}

	decay := -in.SpotPrice * pdfD1 * in.Volatility / (2 * sqrtT)
	carry := in.RiskFreeRate * in.StrikePrice * discount

	if in.OptionType == OptionTypeCall {
		g.Delta = NormalCDF(d1)
		g.Theta = decay - carry*NormalCDF(d2)
		g.Rho = in.StrikePrice * in.TimeToExpiry * discount * NormalCDF(d2)
	} else {
		g.Delta = NormalCDF(d1) - 1
		g.Theta = decay + carry*NormalCDF(-d2)
		g.Rho = -in.StrikePrice * in.TimeToExpiry * discount * NormalCDF(-d2)
	}
	return g, nil
}

// expiredGreeks 到期合约的敏感度
func expiredGreeks(in PricingInput) Greeks {
	var delta float64
	switch {
	case in.OptionType == OptionTypeCall && in.SpotPrice > in.StrikePrice:
		delta = 1
	case in.OptionType == OptionTypePut && in.SpotPrice < in.StrikePrice:
		delta = -1
	}
	return Greeks{Delta: delta}
}
