package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solwatch/internal/market"
)

func buildWindow(closes []float64, lastLow float64) *market.Window {
	w := market.NewWindow(len(closes))
	for i, c := range closes {
		candle := market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      c,
			High:      c + 0.1,
			Low:       c - 0.1,
			Close:     c,
		}
		if i == len(closes)-1 {
			candle.Low = lastLow
		}
		w.Push(candle)
	}
	return w
}

// squeezeSeries 先给一段高波动，再给一段几乎持平的收盘价，
// 使末端布林带收缩，最后一根收在 MA 上方形成突破。
func squeezeSeries() []float64 {
	closes := make([]float64, 0, 60)
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			closes = append(closes, 95)
		} else {
			closes = append(closes, 105)
		}
	}
	for i := 0; i < 29; i++ {
		if i%2 == 0 {
			closes = append(closes, 99.95)
		} else {
			closes = append(closes, 100.05)
		}
	}
	closes = append(closes, 100.3) // 突破根
	return closes
}

func TestDetectorInsufficientData(t *testing.T) {
	d := NewDetector(DetectorConfig{MinBars: 50})
	w := buildWindow([]float64{100, 101, 102}, 99)
	_, err := d.Detect(w)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDetectorSqueezeBreakout(t *testing.T) {
	d := NewDetector(DetectorConfig{})
	w := buildWindow(squeezeSeries(), 99.9) // 最低触及 MA20 下方
	sig, err := d.Detect(w)
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, DirectionLong, sig.Direction)
	assert.Less(t, sig.SqueezeWidth, 4.0)
	assert.Equal(t, 100.3, sig.RefPrice)
	assert.GreaterOrEqual(t, sig.StabilityScore, 0.0)
	assert.LessOrEqual(t, sig.StabilityScore, 1.0)
	assert.NotEmpty(t, sig.ID)
	assert.NotEmpty(t, sig.Quality.Grade)
}

func TestDetectorNoSignalWithoutBreakout(t *testing.T) {
	d := NewDetector(DetectorConfig{})
	// 末根最低价不触及 MA20，不构成突破
	w := buildWindow(squeezeSeries(), 100.25)
	sig, err := d.Detect(w)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestStabilityScoreMonotonic(t *testing.T) {
	d := NewDetector(DetectorConfig{PersistenceTarget: 8, SqueezeThreshold: 4.0})
	bw := func(streak int) []float64 {
		out := make([]float64, 20)
		for i := range out {
			out[i] = 10 // 扩张
		}
		for i := len(out) - streak; i < len(out); i++ {
			out[i] = 2 // 收缩
		}
		return out
	}
	prev := -1.0
	for streak := 0; streak <= 12; streak++ {
		score := d.stabilityScore(bw(streak))
		assert.GreaterOrEqual(t, score, prev, "streak=%d", streak)
		assert.LessOrEqual(t, score, 1.0)
		prev = score
	}
	assert.Equal(t, 1.0, d.stabilityScore(bw(12)))
	assert.InDelta(t, 0.5, d.stabilityScore(bw(4)), 1e-12)
}
