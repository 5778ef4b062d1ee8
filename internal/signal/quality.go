package signal

import "fmt"

// Quality 是信号质量分解，仅用于通知展示，不参与仓位计算。
type Quality struct {
	Score          int    `json:"score"` // 0-100
	Grade          string `json:"grade"`
	BandwidthNote  string `json:"bandwidth_note"`
	OscillatorNote string `json:"oscillator_note"`
	BreakoutNote   string `json:"breakout_note"`
}

type qualityInput struct {
	Bandwidth   float64
	Close       float64
	MA          float64
	RSI         float64
	SqueezeThos float64
}

// gradeQuality 按带宽深度、振荡指标区间、突破幅度做保守分档。
func gradeQuality(in qualityInput) Quality {
	q := Quality{}

	// 带宽深度（0-40）
	switch {
	case in.Bandwidth < 2.5:
		q.Score += 40
		q.BandwidthNote = fmt.Sprintf("带宽 %.2f%%（极度收缩 <2.5%%）", in.Bandwidth)
	case in.Bandwidth < 3.0:
		q.Score += 32
		q.BandwidthNote = fmt.Sprintf("带宽 %.2f%%（深度收缩 2.5-3%%）", in.Bandwidth)
	case in.Bandwidth < in.SqueezeThos:
		q.Score += 25
		q.BandwidthNote = fmt.Sprintf("带宽 %.2f%%（收缩）", in.Bandwidth)
	default:
		q.Score += 8
		q.BandwidthNote = fmt.Sprintf("带宽 %.2f%%（扩张）", in.Bandwidth)
	}

	// 振荡区间（0-30）：避开极值，温和区间得分最高
	switch {
	case in.RSI >= 40 && in.RSI <= 60:
		q.Score += 30
		q.OscillatorNote = fmt.Sprintf("RSI %.1f（中性区，最优）", in.RSI)
	case in.RSI > 30 && in.RSI < 70:
		q.Score += 20
		q.OscillatorNote = fmt.Sprintf("RSI %.1f（温和区）", in.RSI)
	default:
		q.Score += 8
		q.OscillatorNote = fmt.Sprintf("RSI %.1f（极值区，谨慎）", in.RSI)
	}

	// 突破幅度（0-30）：0.1%-1.0% 视为优质，过大追高、过小无效
	if in.MA > 0 {
		breakPct := (in.Close - in.MA) / in.MA * 100
		switch {
		case breakPct >= 0.1 && breakPct <= 1.0:
			q.Score += 30
			q.BreakoutNote = fmt.Sprintf("突破幅度 %.2f%%（优质）", breakPct)
		case breakPct > 1.0:
			q.Score += 15
			q.BreakoutNote = fmt.Sprintf("突破幅度 %.2f%%（偏大）", breakPct)
		default:
			q.Score += 10
			q.BreakoutNote = fmt.Sprintf("突破幅度 %.2f%%（偏弱）", breakPct)
		}
	}

	switch {
	case q.Score >= 80:
		q.Grade = "优质信号"
	case q.Score >= 60:
		q.Grade = "良好信号"
	case q.Score >= 40:
		q.Grade = "一般信号"
	default:
		q.Grade = "较弱信号"
	}
	return q
}
