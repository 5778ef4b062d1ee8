package app

import (
	"context"
	"fmt"
	"time"

	swcfg "solwatch/internal/config"
	"solwatch/internal/gateway/binance"
	"solwatch/internal/gateway/notifier"
	"solwatch/internal/logger"
	"solwatch/internal/market"
	"solwatch/internal/monitor"
	"solwatch/internal/risk"
	"solwatch/internal/scheduler"
	"solwatch/internal/signal"
	"solwatch/internal/store/gormstore"
	"solwatch/internal/store/signallog"
	monitorhttp "solwatch/internal/transport/http"
)

// AppBuilder 按配置装配全部依赖。测试可通过 option 替换行情源与通知通道。
type AppBuilder struct {
	cfg *swcfg.Config

	sourceOverride market.Source
	notifyOverride monitor.Notifier
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *swcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithSource 注入行情源，测试/回放用。
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		if src != nil {
			b.sourceOverride = src
		}
	}
}

// WithNotifier 注入通知分发器。
func WithNotifier(n monitor.Notifier) AppBuilderOption {
	return func(b *AppBuilder) {
		if n != nil {
			b.notifyOverride = n
		}
	}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	intervalDur, ok := scheduler.ParseIntervalDuration(cfg.Market.Interval)
	if !ok {
		return nil, fmt.Errorf("非法K线周期: %s", cfg.Market.Interval)
	}

	source, err := b.resolveSource(cfg)
	if err != nil {
		return nil, err
	}

	positionStore, err := gormstore.NewGormStore(cfg.Store.PositionDB)
	if err != nil {
		return nil, fmt.Errorf("初始化持仓存储失败: %w", err)
	}
	signalStore, err := signallog.NewSignalLogStore(cfg.Store.SignalDB)
	if err != nil {
		_ = positionStore.Close()
		return nil, fmt.Errorf("初始化信号历史存储失败: %w", err)
	}

	machine := risk.NewMachine(risk.Config{
		StopLossPct:   cfg.Risk.StopLossPct / 100,
		TP1Pct:        cfg.Risk.TP1Pct / 100,
		TP2Pct:        cfg.Risk.TP2Pct / 100,
		TrailPct:      cfg.Risk.TrailPct / 100,
		BreakevenPct:  cfg.Risk.BreakevenPct / 100,
		FlipBreakeven: cfg.Risk.FlipBreakeven,
		TimeStop:      time.Duration(cfg.Risk.TimeStopHours) * time.Hour,
	})

	// 重启恢复：持仓快照是事实源
	if pos, found, err := positionStore.LoadPosition(ctx); err != nil {
		logger.Warnf("读取持仓快照失败，按空仓启动: %v", err)
	} else if found && pos.IsOpen() {
		machine.Restore(pos)
		logger.Infof("✓ 恢复持仓 state=%s entry=%.4f @ %s", pos.State, pos.EntryPrice, pos.EntryTime.Format(time.RFC3339))
	}

	detector := signal.NewDetector(signal.DetectorConfig{
		BollPeriod:        cfg.Strategy.BollPeriod,
		BollStdDev:        cfg.Strategy.BollStdDev,
		SqueezeThreshold:  cfg.Strategy.SqueezePct,
		PersistenceTarget: cfg.Strategy.PersistenceTarget,
		MinBars:           cfg.Strategy.MinBars,
	})
	filter := signal.NewFilter(cfg.Strategy.OIFilterPct / 100)
	sizer := signal.NewSizer(cfg.Strategy.SizeMin, cfg.Strategy.SizeMax)

	notify := b.resolveNotifier(cfg)

	loop := monitor.NewLoop(
		monitor.Config{
			Symbol:        cfg.Market.Symbol,
			Interval:      cfg.Market.Interval,
			SignalOffset:  time.Duration(cfg.Monitor.SignalOffsetSeconds) * time.Second,
			FastInterval:  time.Duration(cfg.Monitor.FastIntervalSeconds) * time.Second,
			OIInterval:    time.Duration(cfg.Monitor.OIIntervalSeconds) * time.Second,
			CostZonePct:   cfg.Risk.CostZonePct / 100,
			SignalOnStart: cfg.Monitor.SignalOnStart,
		},
		source,
		market.NewWindow(cfg.Market.WindowSize),
		market.NewOITracker(cfg.Market.OICapacity),
		detector, filter, sizer,
		machine, positionStore, signalStore, notify,
		intervalDur,
	)

	httpServer, err := monitorhttp.NewServer(monitorhttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Monitor: loop,
		Signals: signalStore,
		Trades:  positionStore,
		Chart: &monitorhttp.ChartHandler{
			Symbol:   cfg.Market.Symbol,
			Interval: cfg.Market.Interval,
			Source:   source,
			Signals:  signalStore,
		},
	})
	if err != nil {
		_ = signalStore.Close()
		_ = positionStore.Close()
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	return &App{
		cfg:           cfg,
		loop:          loop,
		httpServer:    httpServer,
		positionStore: positionStore,
		signalStore:   signalStore,
		Summary:       buildStartupSummary(cfg, machine.Snapshot()),
	}, nil
}

func (b *AppBuilder) resolveSource(cfg *swcfg.Config) (market.Source, error) {
	if b.sourceOverride != nil {
		return b.sourceOverride, nil
	}
	src, err := binance.New(binance.Config{
		RESTBaseURL: cfg.Market.RESTBaseURL,
		ProxyURL:    cfg.Market.ProxyURL,
		HTTPTimeout: time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}
	return src, nil
}

func (b *AppBuilder) resolveNotifier(cfg *swcfg.Config) monitor.Notifier {
	if b.notifyOverride != nil {
		return b.notifyOverride
	}
	channels := make([]notifier.TextNotifier, 0, 2)
	if cfg.Notify.Telegram.Enabled {
		channels = append(channels, notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
		logger.Infof("✓ Telegram 通知已启用")
	}
	if cfg.Notify.ServerChan.Enabled {
		channels = append(channels, notifier.NewServerChan(cfg.Notify.ServerChan.APIURL))
		logger.Infof("✓ ServerChan 通知已启用")
	}
	if len(channels) == 0 {
		logger.Warnf("未启用任何通知通道，告警仅写日志")
		channels = append(channels, notifier.Noop{})
	}
	return notifier.NewDispatcher(channels...)
}
