package config

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":8086"

	defaultMarketName     = "binance"
	defaultMarketSymbol   = "SOLUSDT"
	defaultMarketInterval = "1h"
	defaultMarketREST     = "https://fapi.binance.com"
	defaultMarketTimeout  = 30
	defaultWindowSize     = 200
	defaultOICapacity     = 576

	defaultBollPeriod        = 20
	defaultBollStdDev        = 2.0
	defaultSqueezePct        = 4.0
	defaultPersistenceTarget = 8
	defaultMinBars           = 50
	defaultOIFilterPct       = -1.0
	defaultSizeMin           = 0.25
	defaultSizeMax           = 0.35

	defaultStopLossPct   = 3.0
	defaultTP1Pct        = 4.0
	defaultTP2Pct        = 8.0
	defaultTrailPct      = 0.6
	defaultBreakevenPct  = 0.1
	defaultTimeStopHours = 80
	defaultCostZonePct   = 0.5

	defaultSignalOffset = 60
	defaultFastInterval = 10
	defaultOIInterval   = 300

	defaultPositionDB = "data/solwatch.db"
	defaultSignalDB   = "data/signals.db"
)

// applyDefaults 为未配置的字段填默认值。数值零值视为未配置。
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultAppHTTPAddr
	}

	if c.Market.Name == "" {
		c.Market.Name = defaultMarketName
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = defaultMarketSymbol
	}
	if c.Market.Interval == "" {
		c.Market.Interval = defaultMarketInterval
	}
	if c.Market.RESTBaseURL == "" {
		c.Market.RESTBaseURL = defaultMarketREST
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = defaultMarketTimeout
	}
	if c.Market.WindowSize <= 0 {
		c.Market.WindowSize = defaultWindowSize
	}
	if c.Market.OICapacity <= 0 {
		c.Market.OICapacity = defaultOICapacity
	}

	if c.Strategy.BollPeriod <= 0 {
		c.Strategy.BollPeriod = defaultBollPeriod
	}
	if c.Strategy.BollStdDev <= 0 {
		c.Strategy.BollStdDev = defaultBollStdDev
	}
	if c.Strategy.SqueezePct <= 0 {
		c.Strategy.SqueezePct = defaultSqueezePct
	}
	if c.Strategy.PersistenceTarget <= 0 {
		c.Strategy.PersistenceTarget = defaultPersistenceTarget
	}
	if c.Strategy.MinBars <= 0 {
		c.Strategy.MinBars = defaultMinBars
	}
	if c.Strategy.OIFilterPct == 0 {
		c.Strategy.OIFilterPct = defaultOIFilterPct
	}
	if c.Strategy.SizeMin <= 0 {
		c.Strategy.SizeMin = defaultSizeMin
	}
	if c.Strategy.SizeMax <= 0 {
		c.Strategy.SizeMax = defaultSizeMax
	}

	if c.Risk.StopLossPct <= 0 {
		c.Risk.StopLossPct = defaultStopLossPct
	}
	if c.Risk.TP1Pct <= 0 {
		c.Risk.TP1Pct = defaultTP1Pct
	}
	if c.Risk.TP2Pct <= 0 {
		c.Risk.TP2Pct = defaultTP2Pct
	}
	if c.Risk.TrailPct <= 0 {
		c.Risk.TrailPct = defaultTrailPct
	}
	if c.Risk.BreakevenPct <= 0 {
		c.Risk.BreakevenPct = defaultBreakevenPct
	}
	if c.Risk.TimeStopHours <= 0 {
		c.Risk.TimeStopHours = defaultTimeStopHours
	}
	if c.Risk.CostZonePct <= 0 {
		c.Risk.CostZonePct = defaultCostZonePct
	}

	if c.Monitor.SignalOffsetSeconds <= 0 {
		c.Monitor.SignalOffsetSeconds = defaultSignalOffset
	}
	if c.Monitor.FastIntervalSeconds <= 0 {
		c.Monitor.FastIntervalSeconds = defaultFastInterval
	}
	if c.Monitor.OIIntervalSeconds <= 0 {
		c.Monitor.OIIntervalSeconds = defaultOIInterval
	}

	if c.Store.PositionDB == "" {
		c.Store.PositionDB = defaultPositionDB
	}
	if c.Store.SignalDB == "" {
		c.Store.SignalDB = defaultSignalDB
	}
}
