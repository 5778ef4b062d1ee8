package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"solwatch/internal/market"
	"solwatch/internal/scheduler"
)

const maxHistoryLimit = 1500

// Source 基于 go-binance SDK 实现 market.Source（永续合约）。
type Source struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{cfg: final, client: client}, nil
}

// FetchHistory 拉取历史 K 线，自动去掉未收盘的当根。
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	cleanSymbol := normalizeSymbol(symbol)
	if cleanSymbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(cleanSymbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: klines: %v", market.ErrDataUnavailable, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	if dur, ok := scheduler.ParseIntervalDuration(interval); ok {
		out = scheduler.DropUnclosedKline(out, dur)
	}
	return out, nil
}

// LatestPrice 返回最新成交价。
func (s *Source) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	cleanSymbol := normalizeSymbol(symbol)
	if cleanSymbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	prices, err := s.client.NewListPricesService().Symbol(cleanSymbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: ticker price: %v", market.ErrDataUnavailable, err)
	}
	for _, p := range prices {
		if p == nil {
			continue
		}
		if strings.EqualFold(p.Symbol, cleanSymbol) {
			return parseFloat(p.Price), nil
		}
	}
	return 0, fmt.Errorf("%w: price not found for %s", market.ErrDataUnavailable, symbol)
}

// OpenInterest 返回当前持仓量（合约张数）。
func (s *Source) OpenInterest(ctx context.Context, symbol string) (float64, error) {
	cleanSymbol := normalizeSymbol(symbol)
	if cleanSymbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	res, err := s.client.NewGetOpenInterestService().Symbol(cleanSymbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: open interest: %v", market.ErrDataUnavailable, err)
	}
	if res == nil {
		return 0, fmt.Errorf("%w: empty open interest for %s", market.ErrDataUnavailable, symbol)
	}
	return parseFloat(res.OpenInterest), nil
}

// normalizeSymbol 把 "SOL/USDT" 之类的写法转成 Binance 需要的 "SOLUSDT"。
func normalizeSymbol(sym string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(sym), "/", ""))
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
