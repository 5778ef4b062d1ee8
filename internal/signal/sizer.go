package signal

// Sizer 把稳定性评分线性映射到保守仓位区间。
// 任何评分输入都先钳位到 [0,1]，输出严格落在 [Min,Max] 内。
type Sizer struct {
	Min float64
	Max float64
}

func NewSizer(min, max float64) Sizer {
	if min <= 0 {
		min = 0.25
	}
	if max <= min {
		max = 0.35
	}
	return Sizer{Min: min, Max: max}
}

// Size 返回仓位比例，对评分单调非减。
func (s Sizer) Size(stability float64) float64 {
	if stability < 0 {
		stability = 0
	}
	if stability > 1 {
		stability = 1
	}
	return s.Min + stability*(s.Max-s.Min)
}
