package scheduler

import (
	"time"

	"solwatch/internal/market"
)

const DefaultKlineGrace = 10 * time.Second

// DropUnclosedKline 去掉序列末尾仍在进行中的 K 线。
// Binance 风格接口会把当前未收盘的 K 线一并返回。
func DropUnclosedKline(klines []market.Candle, interval time.Duration) []market.Candle {
	return dropUnclosedKlineAt(klines, interval, time.Now().UTC(), DefaultKlineGrace)
}

func dropUnclosedKlineAt(klines []market.Candle, interval time.Duration, now time.Time, grace time.Duration) []market.Candle {
	if len(klines) == 0 || interval <= 0 {
		return klines
	}
	if grace < 0 {
		grace = 0
	}
	last := klines[len(klines)-1]
	if last.OpenTime <= 0 {
		return klines
	}
	closeTimeMs := last.OpenTime + interval.Milliseconds()
	if now.UnixMilli() < closeTimeMs+grace.Milliseconds() {
		return klines[:len(klines)-1]
	}
	return klines
}
