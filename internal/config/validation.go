package config

import (
	"fmt"
	"strings"

	"solwatch/internal/scheduler"
)

// validate 对配置做基础校验。失败视为启动期致命错误。
func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if _, ok := scheduler.ParseIntervalDuration(m.Interval); !ok {
		return fmt.Errorf("market.interval is invalid: %s", m.Interval)
	}
	if m.WindowSize < m.validateMinWindow() {
		return fmt.Errorf("market.window_size must be >= %d", m.validateMinWindow())
	}
	return nil
}

func (m *MarketConfig) validateMinWindow() int { return 50 }

func (s *StrategyConfig) validate() error {
	if s.SqueezePct <= 0 {
		return fmt.Errorf("strategy.squeeze_pct must be > 0")
	}
	if s.OIFilterPct >= 0 {
		return fmt.Errorf("strategy.oi_filter_pct must be negative")
	}
	if s.SizeMin <= 0 || s.SizeMax > 1 || s.SizeMin >= s.SizeMax {
		return fmt.Errorf("strategy size bounds invalid: [%v,%v]", s.SizeMin, s.SizeMax)
	}
	if s.MinBars < s.BollPeriod {
		return fmt.Errorf("strategy.min_bars must be >= boll_period")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.StopLossPct <= 0 || r.StopLossPct >= 100 {
		return fmt.Errorf("risk.stop_loss_pct out of range: %v", r.StopLossPct)
	}
	if r.TP1Pct <= 0 || r.TP2Pct <= r.TP1Pct {
		return fmt.Errorf("risk take-profit levels invalid: tp1=%v tp2=%v", r.TP1Pct, r.TP2Pct)
	}
	if r.TrailPct <= 0 || r.TrailPct >= r.TP1Pct {
		return fmt.Errorf("risk.trail_pct out of range: %v", r.TrailPct)
	}
	if r.TimeStopHours <= 0 {
		return fmt.Errorf("risk.time_stop_hours must be > 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" || strings.TrimSpace(n.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	if n.ServerChan.Enabled && strings.TrimSpace(n.ServerChan.APIURL) == "" {
		return fmt.Errorf("notify.serverchan requires api_url when enabled")
	}
	return nil
}
