package market

import "time"

// Candle 表示一根已收盘的 K 线。时间为 Unix 毫秒。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// OpenedAt 返回开盘时间。
func (c Candle) OpenedAt() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// ClosedAt 返回收盘时间。
func (c Candle) ClosedAt() time.Time {
	return time.UnixMilli(c.CloseTime).UTC()
}

