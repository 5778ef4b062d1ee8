package config

// Config 是 solwatch 的主配置载体。
type Config struct {
	App      AppConfig      `yaml:"app"`
	Market   MarketConfig   `yaml:"market"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Store    StoreConfig    `yaml:"store"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`
}

type MarketConfig struct {
	Name           string `yaml:"name"`
	Symbol         string `yaml:"symbol"`
	Interval       string `yaml:"interval"`
	RESTBaseURL    string `yaml:"rest_base_url"`
	ProxyURL       string `yaml:"proxy_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	WindowSize     int    `yaml:"window_size"`
	OICapacity     int    `yaml:"oi_capacity"`
}

// StrategyConfig 是信号检测与仓位参数。阈值来自离线网格搜索，启动时注入。
type StrategyConfig struct {
	BollPeriod        int     `yaml:"boll_period"`
	BollStdDev        float64 `yaml:"boll_std_dev"`
	SqueezePct        float64 `yaml:"squeeze_pct"`        // 收缩判定带宽，百分数
	PersistenceTarget int     `yaml:"persistence_target"` // 稳定性满分对应的连续收缩根数
	MinBars           int     `yaml:"min_bars"`
	OIFilterPct       float64 `yaml:"oi_filter_pct"` // 入场过滤阈值，百分数（负值）
	SizeMin           float64 `yaml:"size_min"`
	SizeMax           float64 `yaml:"size_max"`
}

// RiskConfig 的比例字段均为百分数（3.0 表示 3%），装配时换算为小数。
type RiskConfig struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TP1Pct        float64 `yaml:"tp1_pct"`
	TP2Pct        float64 `yaml:"tp2_pct"`
	TrailPct      float64 `yaml:"trail_pct"`
	BreakevenPct  float64 `yaml:"breakeven_pct"`
	FlipBreakeven bool    `yaml:"flip_breakeven"`
	TimeStopHours int     `yaml:"time_stop_hours"`
	CostZonePct   float64 `yaml:"cost_zone_pct"`
}

type MonitorConfig struct {
	SignalOffsetSeconds int  `yaml:"signal_offset_seconds"` // K 线收盘后的延迟
	FastIntervalSeconds int  `yaml:"fast_interval_seconds"`
	OIIntervalSeconds   int  `yaml:"oi_interval_seconds"`
	SignalOnStart       bool `yaml:"signal_on_start"` // 启动后立即做一次信号评估，不等下根收盘
}

type StoreConfig struct {
	PositionDB string `yaml:"position_db"`
	SignalDB   string `yaml:"signal_db"`
}

type NotifyConfig struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	ServerChan ServerChanConfig `yaml:"serverchan"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// ServerChanConfig 是微信推送通道（Server 酱风格的 webhook）。
type ServerChanConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIURL  string `yaml:"api_url"`
}
