package signal

import (
	"time"

	"github.com/google/uuid"
)

// Direction 表示信号方向。本系统只做多。
type Direction string

const DirectionLong Direction = "long"

// Signal 是一次入场候选，值对象，产生后不再修改。
type Signal struct {
	ID             string    `json:"id"`
	Time           time.Time `json:"time"`
	Direction      Direction `json:"direction"`
	StabilityScore float64   `json:"stability_score"` // [0,1]，收缩持续性
	SqueezeWidth   float64   `json:"squeeze_width"`   // 触发时布林带宽 %
	RefPrice       float64   `json:"ref_price"`       // 触发 K 线收盘价
	Reason         string    `json:"reason"`
	Quality        Quality   `json:"quality"`
}

func newSignal(at time.Time, stability, width, refPrice float64, reason string, q Quality) *Signal {
	return &Signal{
		ID:             uuid.NewString(),
		Time:           at,
		Direction:      DirectionLong,
		StabilityScore: stability,
		SqueezeWidth:   width,
		RefPrice:       refPrice,
		Reason:         reason,
		Quality:        q,
	}
}
