package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
market:
  symbol: SOLUSDT
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "1h", cfg.Market.Interval)
	assert.Equal(t, 200, cfg.Market.WindowSize)
	assert.Equal(t, 4.0, cfg.Strategy.SqueezePct)
	assert.Equal(t, -1.0, cfg.Strategy.OIFilterPct)
	assert.Equal(t, 0.25, cfg.Strategy.SizeMin)
	assert.Equal(t, 0.35, cfg.Strategy.SizeMax)
	assert.Equal(t, 3.0, cfg.Risk.StopLossPct)
	assert.Equal(t, 80, cfg.Risk.TimeStopHours)
	assert.Equal(t, 10, cfg.Monitor.FastIntervalSeconds)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
market:
  symbol: ETHUSDT
  interval: 4h
strategy:
  squeeze_pct: 3.0
risk:
  time_stop_hours: 48
  flip_breakeven: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Market.Symbol)
	assert.Equal(t, "4h", cfg.Market.Interval)
	assert.Equal(t, 3.0, cfg.Strategy.SqueezePct)
	assert.Equal(t, 48, cfg.Risk.TimeStopHours)
	assert.True(t, cfg.Risk.FlipBreakeven)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad interval": `
market:
  interval: 99x
`,
		"positive oi filter": `
strategy:
  oi_filter_pct: 1.0
`,
		"tp2 below tp1": `
risk:
  tp1_pct: 8.0
  tp2_pct: 4.0
`,
		"telegram missing token": `
notify:
  telegram:
    enabled: true
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
