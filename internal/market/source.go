package market

import (
	"context"
	"errors"
)

// ErrDataUnavailable 表示本轮行情数据不可用，调用方应跳过本次 tick。
// 下一个调度周期会自然重试，tick 内不做重试。
var ErrDataUnavailable = errors.New("market data unavailable")

// Source 提供行情快照：历史 K 线、最新成交价、当前持仓量。
// 所有方法均可能失败，失败按 ErrDataUnavailable 语义处理。
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	OpenInterest(ctx context.Context, symbol string) (float64, error)
}
