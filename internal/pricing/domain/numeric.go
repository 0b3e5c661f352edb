package domain

import (
	"math"
	"math/rand/v2"
)

// Abramowitz-Stegun 26.2.17 多项式系数
const (
	asGamma = 0.2316419
	asB1    = 0.319381530
	asB2    = -0.356563782
	asB3    = 1.781477937
	asB4    = -1.821255978
	asB5    = 1.330274429
)

// NormalCDF 标准正态分布累积分布函数
// 采用 Abramowitz-Stegun 多项式近似，最大绝对误差约 7.5e-8
// 对 |x| 求值后反射，x = 0 返回精确的 0.5，保证 NormalCDF(-x) == 1 - NormalCDF(x)
func NormalCDF(x float64) float64 {
	if x == 0 {
		return 0.5
	}
	if x < 0 {
		return 1 - NormalCDF(-x)
	}
	t := 1 / (1 + asGamma*x)
	poly := t * (asB1 + t*(asB2+t*(asB3+t*(asB4+t*asB5))))
	return 1 - NormalPDF(x)*poly
}

// NormalPDF 标准正态分布概率密度函数
func NormalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// SampleStandardNormal 用 Box-Muller 变换从均匀分布生成标准正态随机数
// u1 排除精确 0，保证 log(u1) 有界，绝不返回 NaN
func SampleStandardNormal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
