package binance

import "time"

// Config 描述 Binance 永续合约 REST 访问参数。
type Config struct {
	RESTBaseURL string
	ProxyURL    string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.RESTBaseURL == "" {
		c.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return c
}
