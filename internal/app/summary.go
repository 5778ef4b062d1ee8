package app

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	swcfg "solwatch/internal/config"
	"solwatch/internal/logger"
	"solwatch/internal/risk"
)

// StartupSummary 是启动时打印的配置与状态摘要。
type StartupSummary struct {
	Market   MarketSummary
	Strategy StrategySummary
	Risk     RiskSummary
	Position risk.Position
	raw      string // 完整配置的 YAML 转储（脱敏后）
}

type MarketSummary struct {
	Symbol   string
	Interval string
	Window   int
}

type StrategySummary struct {
	SqueezePct  float64
	OIFilterPct float64
	SizeMin     float64
	SizeMax     float64
}

type RiskSummary struct {
	StopLossPct   float64
	TP1Pct        float64
	TP2Pct        float64
	TrailPct      float64
	TimeStopHours int
}

func buildStartupSummary(cfg *swcfg.Config, pos risk.Position) *StartupSummary {
	return &StartupSummary{
		Market: MarketSummary{
			Symbol:   cfg.Market.Symbol,
			Interval: cfg.Market.Interval,
			Window:   cfg.Market.WindowSize,
		},
		Strategy: StrategySummary{
			SqueezePct:  cfg.Strategy.SqueezePct,
			OIFilterPct: cfg.Strategy.OIFilterPct,
			SizeMin:     cfg.Strategy.SizeMin,
			SizeMax:     cfg.Strategy.SizeMax,
		},
		Risk: RiskSummary{
			StopLossPct:   cfg.Risk.StopLossPct,
			TP1Pct:        cfg.Risk.TP1Pct,
			TP2Pct:        cfg.Risk.TP2Pct,
			TrailPct:      cfg.Risk.TrailPct,
			TimeStopHours: cfg.Risk.TimeStopHours,
		},
		Position: pos,
		raw:      dumpConfig(cfg),
	}
}

// dumpConfig 把配置转成 YAML 文本，通知凭据不落日志。
func dumpConfig(cfg *swcfg.Config) string {
	redacted := *cfg
	if redacted.Notify.Telegram.BotToken != "" {
		redacted.Notify.Telegram.BotToken = "***"
	}
	if redacted.Notify.ServerChan.APIURL != "" {
		redacted.Notify.ServerChan.APIURL = "***"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Sprintf("<配置序列化失败: %v>", err)
	}
	return string(out)
}

func (s *StartupSummary) Print() {
	if s == nil {
		return
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("启动配置摘要 (STARTUP SUMMARY)\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "[行情] %s %s 窗口=%d 根\n", s.Market.Symbol, s.Market.Interval, s.Market.Window)
	fmt.Fprintf(&b, "[信号] 收缩阈值=%.1f%% OI过滤=%.1f%% 仓位=%.0f%%-%.0f%%\n",
		s.Strategy.SqueezePct, s.Strategy.OIFilterPct, s.Strategy.SizeMin*100, s.Strategy.SizeMax*100)
	fmt.Fprintf(&b, "[风控] 止损=%.1f%% TP1=%.1f%% TP2=%.1f%% 移动止损=%.1f%% 时限=%dh\n",
		s.Risk.StopLossPct, s.Risk.TP1Pct, s.Risk.TP2Pct, s.Risk.TrailPct, s.Risk.TimeStopHours)
	if s.Position.IsOpen() {
		fmt.Fprintf(&b, "[持仓] 已恢复 state=%s entry=%.4f\n", s.Position.State, s.Position.EntryPrice)
	} else {
		b.WriteString("[持仓] 空仓\n")
	}
	b.WriteString(strings.Repeat("-", 60) + "\n")
	b.WriteString("[完整配置]\n")
	b.WriteString(s.raw)
	b.WriteString(strings.Repeat("=", 60))
	logger.InfoBlock(b.String())
}
