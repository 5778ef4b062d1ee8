package signal

import (
	"errors"
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"solwatch/internal/market"
)

// ErrInsufficientData 表示窗口内 K 线不足，本轮视为无信号。
var ErrInsufficientData = errors.New("insufficient candles for detection")

// DetectorConfig 是信号检测参数。阈值来自离线网格搜索，运行时只注入不推导。
type DetectorConfig struct {
	BollPeriod        int     // 布林带周期，默认 20
	BollStdDev        float64 // 布林带倍数，默认 2.0
	SqueezeThreshold  float64 // 收缩判定带宽 %，默认 4.0
	PersistenceTarget int     // 稳定性评分满分对应的连续收缩根数，默认 8
	MinBars           int     // 检测所需最少 K 线数，默认 50
	RSIPeriod         int     // 质量评估用 RSI 周期，默认 14
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.BollPeriod <= 0 {
		c.BollPeriod = 20
	}
	if c.BollStdDev <= 0 {
		c.BollStdDev = 2.0
	}
	if c.SqueezeThreshold <= 0 {
		c.SqueezeThreshold = 4.0
	}
	if c.PersistenceTarget <= 0 {
		c.PersistenceTarget = 8
	}
	if c.MinBars <= 0 {
		c.MinBars = 50
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = 14
	}
	return c
}

// Detector 在滚动窗口上计算布林带收缩突破信号。
// 对窗口只读，无内部状态，可安全重复调用。
type Detector struct {
	cfg DetectorConfig
}

func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Detect 检查窗口最后一根已收盘 K 线是否构成入场信号。
// 无信号返回 (nil, nil)；K 线不足返回 ErrInsufficientData。
func (d *Detector) Detect(w *market.Window) (*Signal, error) {
	if w == nil || w.Len() < d.cfg.MinBars {
		return nil, ErrInsufficientData
	}
	closes := w.Closes()
	upper, mid, lower := talib.BBands(closes, d.cfg.BollPeriod, d.cfg.BollStdDev, d.cfg.BollStdDev, talib.SMA)

	n := len(closes)
	bw := make([]float64, n)
	for i := range closes {
		if mid[i] == 0 {
			bw[i] = 0
			continue
		}
		bw[i] = (upper[i] - lower[i]) / mid[i] * 100
	}

	last, _ := w.At(0)
	ma20 := mid[n-1]
	width := bw[n-1]
	if !isFinite(ma20) || !isFinite(width) {
		return nil, fmt.Errorf("non-finite band values: ma=%v width=%v", ma20, width)
	}

	squeezed := width < d.cfg.SqueezeThreshold
	// 做多突破：最低价触及 MA20 且收盘重新站上
	breakout := last.Low <= ma20 && last.Close > ma20
	if !squeezed || !breakout {
		return nil, nil
	}

	stability := d.stabilityScore(bw)
	reason := fmt.Sprintf("布林带收缩突破（带宽 %.2f%% < %.2f%%）", width, d.cfg.SqueezeThreshold)

	rsi := talib.Rsi(closes, d.cfg.RSIPeriod)
	q := gradeQuality(qualityInput{
		Bandwidth:   width,
		Close:       last.Close,
		MA:          ma20,
		RSI:         rsi[n-1],
		SqueezeThos: d.cfg.SqueezeThreshold,
	})

	return newSignal(last.ClosedAt(), stability, width, last.Close, reason, q), nil
}

// stabilityScore 统计从最新一根往回连续满足收缩条件的根数，
// 归一化到 [0,1]，持续越久分越高，封顶 1。
func (d *Detector) stabilityScore(bw []float64) float64 {
	streak := 0
	for i := len(bw) - 1; i >= 0; i-- {
		if !isFinite(bw[i]) || bw[i] <= 0 || bw[i] >= d.cfg.SqueezeThreshold {
			break
		}
		streak++
	}
	score := float64(streak) / float64(d.cfg.PersistenceTarget)
	if score > 1 {
		score = 1
	}
	return score
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
