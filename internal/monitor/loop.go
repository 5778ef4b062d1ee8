package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"solwatch/internal/gateway/notifier"
	"solwatch/internal/logger"
	"solwatch/internal/market"
	"solwatch/internal/risk"
	"solwatch/internal/scheduler"
	"solwatch/internal/signal"
)

// PositionStore 是持仓快照与平仓流水的持久化接口。
type PositionStore interface {
	SavePosition(ctx context.Context, pos risk.Position) error
	RecordExit(ctx context.Context, ev risk.ExitEvent) error
}

// SignalSink 落盘历史信号。
type SignalSink interface {
	AppendSignal(ctx context.Context, sig *signal.Signal, admitted bool, rejectReason string, oiChange float64) error
}

// Notifier 异步分发通知，不得阻塞调用方。
type Notifier interface {
	Dispatch(text string)
}

// Config 是监控回路的节拍参数。
type Config struct {
	Symbol       string
	Interval     string
	SignalOffset  time.Duration // K 线收盘后的评估延迟
	FastInterval  time.Duration // 离场检查周期
	OIInterval    time.Duration // 持仓量采样周期
	CostZonePct   float64       // 成本区半径（小数），OI 掉头预警用
	SignalOnStart bool          // 启动后立即评估一次，再对齐收盘节拍
}

func (c Config) withDefaults() Config {
	if c.Symbol == "" {
		c.Symbol = "SOLUSDT"
	}
	if c.Interval == "" {
		c.Interval = "1h"
	}
	if c.SignalOffset <= 0 {
		c.SignalOffset = time.Minute
	}
	if c.FastInterval <= 0 {
		c.FastInterval = 10 * time.Second
	}
	if c.OIInterval <= 0 {
		c.OIInterval = 5 * time.Minute
	}
	if c.CostZonePct <= 0 {
		c.CostZonePct = 0.005
	}
	return c
}

// Loop 是监控主回路：慢周期做信号评估与入场，快周期做离场检查，
// 独立周期采样持仓量。数据失败一律跳过本轮，下一节拍自然重试。
type Loop struct {
	cfg      Config
	source   market.Source
	window   *market.Window
	oi       *market.OITracker
	detector *signal.Detector
	filter   signal.Filter
	sizer    signal.Sizer
	machine  *risk.Machine
	store    PositionStore
	signals  SignalSink
	notify   Notifier

	intervalDur time.Duration
	nowFn       func() time.Time
	lastOIWarn  time.Time
}

func NewLoop(cfg Config, source market.Source, window *market.Window, oi *market.OITracker,
	detector *signal.Detector, filter signal.Filter, sizer signal.Sizer,
	machine *risk.Machine, store PositionStore, signals SignalSink, notify Notifier,
	intervalDur time.Duration) *Loop {
	return &Loop{
		cfg:         cfg.withDefaults(),
		source:      source,
		window:      window,
		oi:          oi,
		detector:    detector,
		filter:      filter,
		sizer:       sizer,
		machine:     machine,
		store:       store,
		signals:     signals,
		notify:      notify,
		intervalDur: intervalDur,
		nowFn:       time.Now,
	}
}

// Bootstrap 启动前回填 K 线窗口。持仓恢复由装配层完成。
func (l *Loop) Bootstrap(ctx context.Context) error {
	candles, err := l.source.FetchHistory(ctx, l.cfg.Symbol, l.cfg.Interval, l.window.Capacity())
	if err != nil {
		return err
	}
	l.window.Replace(candles)
	logger.Infof("K线窗口回填完成 symbol=%s interval=%s bars=%d", l.cfg.Symbol, l.cfg.Interval, l.window.Len())
	return nil
}

// Run 阻塞运行三条节拍，直到 ctx 取消。
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx, l.intervalDur, l.cfg.SignalOffset)
		sched.RunImmediately = l.cfg.SignalOnStart
		sched.Start(func() { l.RunSignalCycle(ctx) })
		return ctx.Err()
	})
	g.Go(func() error {
		scheduler.RunEvery(ctx, l.cfg.FastInterval, func() { l.RunFastTick(ctx) })
		return ctx.Err()
	})
	g.Go(func() error {
		scheduler.RunEvery(ctx, l.cfg.OIInterval, func() { l.RunOISample(ctx) })
		return ctx.Err()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunSignalCycle 是慢周期：刷新窗口、检测信号、过滤、定仓、开仓。
func (l *Loop) RunSignalCycle(ctx context.Context) {
	now := l.nowFn()

	candles, err := l.source.FetchHistory(ctx, l.cfg.Symbol, l.cfg.Interval, l.window.Capacity())
	if err != nil {
		logger.Warnf("信号周期: 拉取K线失败，跳过本轮: %v", err)
		return
	}
	l.window.Replace(candles)

	l.maybeWarnOITurnDown(now)

	sig, err := l.detector.Detect(l.window)
	if err != nil {
		if errors.Is(err, signal.ErrInsufficientData) {
			logger.Warnf("信号周期: K线不足 bars=%d，跳过本轮", l.window.Len())
		} else {
			logger.Errorf("信号周期: 检测失败: %v", err)
		}
		return
	}
	if sig == nil {
		logger.Debugf("信号周期: 无信号 bars=%d", l.window.Len())
		return
	}
	logger.Infof("检测到信号 id=%s width=%.2f%% stability=%.2f ref=%.4f", sig.ID, sig.SqueezeWidth, sig.StabilityScore, sig.RefPrice)

	oiChange, oiValid := l.oi.HourlyChange(now)
	divergence := oiChange
	if oiValid {
		divergence = oiChange - l.hourlyPriceChange()
	}

	admitted := true
	rejectReason := ""
	if oiValid {
		admitted, rejectReason = l.filter.Admit(sig, oiChange, divergence)
	} else {
		// OI 数据不足时按中性放行，过滤只在证据明确时拦截
		logger.Warnf("信号周期: OI 采样不足，过滤按中性放行")
	}

	if l.signals != nil {
		if err := l.signals.AppendSignal(ctx, sig, admitted, rejectReason, oiChange); err != nil {
			logger.Warnf("信号历史落盘失败: %v", err)
		}
	}
	if !admitted {
		logger.Infof("信号被过滤 id=%s 原因=%s", sig.ID, rejectReason)
		return
	}

	size := l.sizer.Size(sig.StabilityScore)
	pos, opened, err := l.machine.OpenFromSignal(sig, size, sig.RefPrice, now)
	if err != nil {
		logger.Errorf("开仓失败: %v", err)
		return
	}
	if !opened {
		return
	}
	logger.Infof("开仓 entry=%.4f size=%.0f%% sl=%.4f tp1=%.4f tp2=%.4f",
		pos.EntryPrice, pos.SizeFraction*100, pos.StopLoss, pos.TP1, pos.TP2)

	// 先落盘再通知：通知失败不回滚状态
	if err := l.store.SavePosition(ctx, pos); err != nil {
		logger.Errorf("持仓快照落盘失败: %v", err)
	}
	if l.notify != nil {
		l.notify.Dispatch(notifier.FormatEntry(sig, pos))
	}
}

// RunFastTick 是快周期：仅在持仓时拉取最新价并评估离场规则。
func (l *Loop) RunFastTick(ctx context.Context) {
	if !l.machine.Snapshot().IsOpen() {
		return
	}
	now := l.nowFn()

	price, err := l.source.LatestPrice(ctx, l.cfg.Symbol)
	if err != nil {
		logger.Warnf("快周期: 拉取最新价失败，跳过本轮: %v", err)
		return
	}

	res, err := l.machine.EvaluateTick(price, now)
	if err != nil {
		logger.Errorf("快周期: 评估失败，本轮作废: %v", err)
		return
	}

	switch {
	case res.Exit != nil:
		logger.Infof("平仓 reason=%s exit=%.4f pnl=%+.2f%%", res.Exit.Reason, res.Exit.ExitPrice, res.Exit.PnLFraction*100)
		if err := l.store.SavePosition(ctx, l.machine.Snapshot()); err != nil {
			logger.Errorf("持仓快照落盘失败: %v", err)
		}
		if err := l.store.RecordExit(ctx, *res.Exit); err != nil {
			logger.Errorf("平仓流水落盘失败: %v", err)
		}
		if l.notify != nil {
			l.notify.Dispatch(notifier.FormatExit(res.Exit))
		}
	case res.TP1Fired:
		pos := l.machine.Snapshot()
		logger.Infof("TP1 触发，移动止损启动 trailing=%.4f sl=%.4f", pos.TrailingStop, pos.StopLoss)
		if err := l.store.SavePosition(ctx, pos); err != nil {
			logger.Errorf("持仓快照落盘失败: %v", err)
		}
		if l.notify != nil {
			l.notify.Dispatch(notifier.FormatTP1(pos, price))
		}
	case res.Changed:
		if err := l.store.SavePosition(ctx, l.machine.Snapshot()); err != nil {
			logger.Errorf("持仓快照落盘失败: %v", err)
		}
	}
}

// RunOISample 采样当前持仓量。
func (l *Loop) RunOISample(ctx context.Context) {
	value, err := l.source.OpenInterest(ctx, l.cfg.Symbol)
	if err != nil {
		logger.Warnf("OI 采样失败，跳过本轮: %v", err)
		return
	}
	l.oi.Record(l.nowFn(), value)
}

// ManualClose 外部指令平仓，供 HTTP 入口调用。
// 返回平仓事件；无持仓时返回 (nil, false)。
func (l *Loop) ManualClose(ctx context.Context) (*risk.ExitEvent, bool) {
	now := l.nowFn()
	price, err := l.source.LatestPrice(ctx, l.cfg.Symbol)
	if err != nil {
		logger.Warnf("手动平仓: 拉取最新价失败，按入场价结算: %v", err)
		price = 0
	}
	ev, ok := l.machine.ManualClose(price, now)
	if !ok {
		return nil, false
	}
	logger.Infof("手动平仓 exit=%.4f pnl=%+.2f%%", ev.ExitPrice, ev.PnLFraction*100)
	if err := l.store.SavePosition(ctx, l.machine.Snapshot()); err != nil {
		logger.Errorf("持仓快照落盘失败: %v", err)
	}
	if err := l.store.RecordExit(ctx, *ev); err != nil {
		logger.Errorf("平仓流水落盘失败: %v", err)
	}
	if l.notify != nil {
		l.notify.Dispatch(notifier.FormatExit(ev))
	}
	return ev, true
}

// Status 返回当前状态文本，供 HTTP 与通知指令复用。
func (l *Loop) Status(ctx context.Context) string {
	pos := l.machine.Snapshot()
	price, err := l.source.LatestPrice(ctx, l.cfg.Symbol)
	if err != nil {
		price = 0
	}
	oiChange, oiValid := l.oi.HourlyChange(l.nowFn())
	return notifier.FormatStatus(pos, price, oiChange, oiValid)
}

// Position 返回持仓只读副本。
func (l *Loop) Position() risk.Position {
	return l.machine.Snapshot()
}

// hourlyPriceChange 用窗口最后两根收盘价近似一小时价格变化率。
func (l *Loop) hourlyPriceChange() float64 {
	last, ok := l.window.At(0)
	if !ok {
		return 0
	}
	prev, ok := l.window.At(1)
	if !ok || prev.Close <= 0 {
		return 0
	}
	return (last.Close - prev.Close) / prev.Close
}

// maybeWarnOITurnDown 在持仓且价格回到成本区、OI 持续回落时发预警。
// 仅提示不动仓，预警间隔不小于一个慢周期。
func (l *Loop) maybeWarnOITurnDown(now time.Time) {
	pos := l.machine.Snapshot()
	if !pos.IsOpen() || l.notify == nil {
		return
	}
	last, ok := l.window.At(0)
	if !ok || pos.EntryPrice <= 0 {
		return
	}
	drift := math.Abs(last.Close-pos.EntryPrice) / pos.EntryPrice
	if drift > l.cfg.CostZonePct {
		return
	}
	const turnDownWindow = 30 * time.Minute
	if !l.oi.RecentTurnDown(now, turnDownWindow) {
		return
	}
	if now.Sub(l.lastOIWarn) < l.intervalDur {
		return
	}
	l.lastOIWarn = now
	logger.Warnf("持仓在成本区且 OI 持续回落，发出预警")
	l.notify.Dispatch(notifier.FormatOIWarn(turnDownWindow))
}
