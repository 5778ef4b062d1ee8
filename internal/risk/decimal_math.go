package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// 价位比较统一走 decimal，避免浮点误差在阈值边界上来回触发。

var decOne = decimal.NewFromInt(1)

func decFromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func decToFloat(v decimal.Decimal) float64 {
	f, _ := v.Float64()
	return f
}

func decimalLTE(a, b float64) bool {
	return decFromFloat(a).Cmp(decFromFloat(b)) <= 0
}

func decimalGTE(a, b float64) bool {
	return decFromFloat(a).Cmp(decFromFloat(b)) >= 0
}

// relativePrice 返回 base×(1+pct)，pct 可为负。
func relativePrice(base, pct float64) float64 {
	return decToFloat(decFromFloat(base).Mul(decOne.Add(decFromFloat(pct))))
}
