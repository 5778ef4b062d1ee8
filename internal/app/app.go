package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	swcfg "solwatch/internal/config"
	"solwatch/internal/logger"
	"solwatch/internal/monitor"
	"solwatch/internal/store/gormstore"
	"solwatch/internal/store/signallog"
	monitorhttp "solwatch/internal/transport/http"
)

// App 负责应用级编排：加载配置→初始化依赖→启动监控回路与 HTTP 服务。
type App struct {
	cfg           *swcfg.Config
	cfgPath       string
	loop          *monitor.Loop
	httpServer    *monitorhttp.Server
	positionStore *gormstore.GormStore
	signalStore   *signallog.SignalLogStore
	Summary       *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *swcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// SetConfigPath 记录配置文件路径以启用热加载。
func (a *App) SetConfigPath(path string) {
	if a != nil {
		a.cfgPath = path
	}
}

// Loop 暴露监控回路实例（测试/回放用）。
func (a *App) Loop() *monitor.Loop {
	if a == nil {
		return nil
	}
	return a.loop
}

// Run 启动监控回路与 HTTP 服务，阻塞直到 ctx 取消或出现致命错误。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Summary != nil {
		a.Summary.Print()
	}

	if err := a.loop.Bootstrap(ctx); err != nil {
		return fmt.Errorf("K线窗口回填失败: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		defer a.close()
		return a.loop.Run(ctx)
	})

	if a.cfgPath != "" {
		group.Go(func() error {
			// 热加载仅调整日志级别；节拍与风控参数在重启时生效
			return swcfg.Watch(ctx, a.cfgPath, func(next *swcfg.Config) {
				logger.SetLevel(next.App.LogLevel)
			})
		})
	}

	return group.Wait()
}

func (a *App) close() {
	if a.signalStore != nil {
		_ = a.signalStore.Close()
	}
	if a.positionStore != nil {
		_ = a.positionStore.Close()
	}
}
