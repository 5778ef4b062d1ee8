package risk

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"solwatch/internal/logger"
	"solwatch/internal/signal"
)

// ErrInvalidPrice 表示计算中出现非有限价格，本次评估作废且不得写入持仓。
var ErrInvalidPrice = errors.New("non-finite price in risk evaluation")

// Config 是风控参数。均为小数比例，持仓时限为小时数。
type Config struct {
	StopLossPct   float64 // 默认 0.03
	TP1Pct        float64 // 默认 0.04
	TP2Pct        float64 // 默认 0.08
	TrailPct      float64 // 默认 0.006
	BreakevenPct  float64 // TP1 后保本止损抬升幅度，默认 0.001
	FlipBreakeven bool    // TP1 后是否把止损抬到保本位
	TimeStop      time.Duration
}

func (c Config) withDefaults() Config {
	if c.StopLossPct <= 0 {
		c.StopLossPct = 0.03
	}
	if c.TP1Pct <= 0 {
		c.TP1Pct = 0.04
	}
	if c.TP2Pct <= 0 {
		c.TP2Pct = 0.08
	}
	if c.TrailPct <= 0 {
		c.TrailPct = 0.006
	}
	if c.BreakevenPct <= 0 {
		c.BreakevenPct = 0.001
	}
	if c.TimeStop <= 0 {
		c.TimeStop = 80 * time.Hour
	}
	return c
}

// TickResult 汇总一次快周期评估的结果。
// Exit 非空表示本次评估平仓；TP1Fired 表示进入移动止损状态；
// Changed 表示持仓字段发生变化，需要持久化。
type TickResult struct {
	Exit     *ExitEvent
	TP1Fired bool
	Changed  bool
}

// Machine 独占持有 Position。慢周期入场与快周期离场都经过内部互斥锁，
// 避免两条节拍交错写出不一致状态。
type Machine struct {
	mu  sync.Mutex
	cfg Config
	pos Position
}

func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults(), pos: Position{State: StateIdle}}
}

// Restore 用持久化的持仓覆盖当前状态，仅在启动时调用。
func (m *Machine) Restore(pos Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos.State == "" {
		pos.State = StateIdle
	}
	m.pos = pos
}

// Snapshot 返回持仓的只读副本。
func (m *Machine) Snapshot() Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// OpenFromSignal 执行 Idle→Open。已有持仓时是 no-op（单仓位槽）。
// 返回开仓后的持仓副本与是否真正开仓。
func (m *Machine) OpenFromSignal(sig *signal.Signal, sizeFraction, entryPrice float64, now time.Time) (Position, bool, error) {
	if sig == nil {
		return Position{}, false, nil
	}
	if !isFinite(entryPrice) || entryPrice <= 0 {
		return Position{}, false, fmt.Errorf("%w: entry=%v", ErrInvalidPrice, entryPrice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos.State != StateIdle {
		logger.Infof("已有持仓，新信号 %s 仅记录不开仓", sig.ID)
		return m.pos, false, nil
	}
	m.pos = Position{
		State:            StateOpen,
		EntryPrice:       entryPrice,
		EntryTime:        now,
		SizeFraction:     sizeFraction,
		StopLoss:         relativePrice(entryPrice, -m.cfg.StopLossPct),
		TP1:              relativePrice(entryPrice, m.cfg.TP1Pct),
		TP2:              relativePrice(entryPrice, m.cfg.TP2Pct),
		TrailingActive:   false,
		TrailingStop:     0,
		HighestFavorable: entryPrice,
		SignalID:         sig.ID,
	}
	return m.pos, true, nil
}

// EvaluateTick 按固定优先级评估离场规则，首个命中即生效：
// 时间止损 → 止损 → TP2 → TP1（转入移动止损）→ 移动止损棘轮 → 移动止损触发。
// price<=0 视为本轮无有效读数，直接跳过；非有限价格返回 ErrInvalidPrice。
func (m *Machine) EvaluateTick(price float64, now time.Time) (TickResult, error) {
	if !isFinite(price) {
		return TickResult{}, fmt.Errorf("%w: price=%v", ErrInvalidPrice, price)
	}
	if price <= 0 {
		return TickResult{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pos.IsOpen() {
		return TickResult{}, nil
	}

	// 时间止损最先判定：独立于价格的硬上限
	if m.pos.Age(now) >= m.cfg.TimeStop {
		return m.closeLocked(ExitTimeStop, price, now)
	}

	if decimalLTE(price, m.pos.StopLoss) {
		return m.closeLocked(ExitStopLoss, price, now)
	}

	if decimalGTE(price, m.pos.TP2) {
		return m.closeLocked(ExitTakeProfit2, price, now)
	}

	if m.pos.State == StateOpen {
		if decimalGTE(price, m.pos.TP1) {
			// 先算后写：任何非有限结果都不得落到持仓上
			trailing := relativePrice(price, -m.cfg.TrailPct)
			breakeven := relativePrice(m.pos.EntryPrice, m.cfg.BreakevenPct)
			if !isFinite(trailing) || !isFinite(breakeven) {
				return TickResult{}, fmt.Errorf("%w: trailing=%v breakeven=%v", ErrInvalidPrice, trailing, breakeven)
			}
			m.pos.State = StateOpenTrailing
			m.pos.TrailingActive = true
			m.pos.HighestFavorable = math.Max(m.pos.HighestFavorable, price)
			m.pos.TrailingStop = trailing
			if m.cfg.FlipBreakeven && breakeven > m.pos.StopLoss {
				m.pos.StopLoss = breakeven
				m.pos.BreakevenActive = true
			}
			return TickResult{TP1Fired: true, Changed: true}, nil
		}
		return TickResult{}, nil
	}

	// OpenTrailing：先棘轮，再判触发。止损只向有利方向移动。
	changed := false
	if price > m.pos.HighestFavorable {
		candidate := relativePrice(price, -m.cfg.TrailPct)
		if !isFinite(candidate) {
			return TickResult{}, fmt.Errorf("%w: trailing candidate=%v", ErrInvalidPrice, candidate)
		}
		m.pos.HighestFavorable = price
		if candidate > m.pos.TrailingStop {
			m.pos.TrailingStop = candidate
			changed = true
		}
	}
	if decimalLTE(price, m.pos.TrailingStop) {
		return m.closeLocked(ExitTrailingStop, price, now)
	}
	return TickResult{Changed: changed}, nil
}

// ManualClose 外部指令平仓，绕过所有价格规则，立即生效。
// 无持仓时返回 (nil, false)。
func (m *Machine) ManualClose(price float64, now time.Time) (*ExitEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pos.IsOpen() {
		return nil, false
	}
	if !isFinite(price) || price <= 0 {
		price = m.pos.EntryPrice
	}
	res, _ := m.closeLocked(ExitManual, price, now)
	return res.Exit, true
}

func (m *Machine) closeLocked(reason ExitReason, price float64, now time.Time) (TickResult, error) {
	ev := &ExitEvent{
		Reason:       reason,
		ExitPrice:    price,
		ExitTime:     now,
		PnLFraction:  m.pos.PnLFraction(price),
		EntryPrice:   m.pos.EntryPrice,
		EntryTime:    m.pos.EntryTime,
		SizeFraction: m.pos.SizeFraction,
		HoldHours:    m.pos.Age(now).Hours(),
		SignalID:     m.pos.SignalID,
	}
	if !isFinite(ev.PnLFraction) {
		return TickResult{}, fmt.Errorf("%w: pnl=%v", ErrInvalidPrice, ev.PnLFraction)
	}
	m.pos = Position{State: StateIdle}
	return TickResult{Exit: ev, Changed: true}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
