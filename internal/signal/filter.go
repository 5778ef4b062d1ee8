package signal

import "fmt"

// Filter 按持仓量行为过滤入场信号。
// OI 快速下降说明突破缺乏真实资金支撑，此时信号直接丢弃，
// 下一个慢周期会独立重新评估，不做重试。
type Filter struct {
	// Threshold 为变化率下限（小数），默认 -0.01 即 -1%。
	Threshold float64
}

func NewFilter(threshold float64) Filter {
	if threshold == 0 {
		threshold = -0.01
	}
	return Filter{Threshold: threshold}
}

// Admit 判断信号是否放行。oiChange 为一小时 OI 变化率，
// divergence 为 OI 变化率与价格变化率之差（背离）。
// 返回 false 时附带拦截原因。
func (f Filter) Admit(sig *Signal, oiChange, divergence float64) (bool, string) {
	if sig == nil {
		return false, "无信号"
	}
	if oiChange < f.Threshold {
		return false, fmt.Sprintf("OI 缩减（%.2f%% < %.2f%%）", oiChange*100, f.Threshold*100)
	}
	if divergence < f.Threshold {
		return false, fmt.Sprintf("价格-OI 背离（%.2f%% < %.2f%%）", divergence*100, f.Threshold*100)
	}
	return true, ""
}
