package risk

import "time"

// State 是风控状态机的状态。
type State string

const (
	StateIdle         State = "idle"
	StateOpen         State = "open"
	StateOpenTrailing State = "open_trailing" // TP1 触发后的持仓状态
)

// ExitReason 标记一次平仓的触发规则。
type ExitReason string

const (
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTakeProfit2  ExitReason = "take_profit2"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitTimeStop     ExitReason = "time_stop"
	ExitManual       ExitReason = "manual"
)

// Position 是系统中唯一的可变长期实体，仅允许状态机持有与修改。
type Position struct {
	State            State     `json:"state"`
	EntryPrice       float64   `json:"entry_price"`
	EntryTime        time.Time `json:"entry_time"`
	SizeFraction     float64   `json:"size_fraction"`
	StopLoss         float64   `json:"stop_loss"`
	TP1              float64   `json:"tp1"`
	TP2              float64   `json:"tp2"`
	TrailingActive   bool      `json:"trailing_active"`
	TrailingStop     float64   `json:"trailing_stop"`
	HighestFavorable float64   `json:"highest_favorable"`
	BreakevenActive  bool      `json:"breakeven_active"`
	SignalID         string    `json:"signal_id,omitempty"`
}

// IsOpen 返回是否存在持仓。
func (p Position) IsOpen() bool {
	return p.State == StateOpen || p.State == StateOpenTrailing
}

// Age 返回持仓时长。
func (p Position) Age(now time.Time) time.Duration {
	if !p.IsOpen() || p.EntryTime.IsZero() {
		return 0
	}
	return now.Sub(p.EntryTime)
}

// PnLFraction 返回相对入场价的收益率（多头）。
func (p Position) PnLFraction(price float64) float64 {
	if !p.IsOpen() || p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}

// ExitEvent 是一次平仓事件，值对象，产生后立即分发给持久化与通知方。
type ExitEvent struct {
	Reason       ExitReason `json:"reason"`
	ExitPrice    float64    `json:"exit_price"`
	ExitTime     time.Time  `json:"exit_time"`
	PnLFraction  float64    `json:"pnl_fraction"`
	EntryPrice   float64    `json:"entry_price"`
	EntryTime    time.Time  `json:"entry_time"`
	SizeFraction float64    `json:"size_fraction"`
	HoldHours    float64    `json:"hold_hours"`
	SignalID     string     `json:"signal_id,omitempty"`
}
