package monitorhttp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"solwatch/internal/market"
	"solwatch/internal/store/signallog"
)

const (
	chartBackground    = "#060c1b"
	chartTextPrimary   = "#eceff4"
	chartTextSecondary = "#9ca3af"
	chartBull          = "#34d399"
	chartBear          = "#f87171"
	chartSignal        = "#fbbf24"
)

// ChartHandler 把最近的 K 线与历史信号渲染成 HTML 图表。
type ChartHandler struct {
	Symbol   string
	Interval string
	Source   market.Source
	Signals  SignalReader
}

// Render 输出自包含的 HTML 页面，浏览器直接打开即可。
func (h *ChartHandler) Render(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryInt(c, "bars", 200)
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	candles, err := h.Source.FetchHistory(ctx, h.Symbol, h.Interval, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("拉取K线失败: %v", err)})
		return
	}
	if len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "无K线数据"})
		return
	}

	var records []signallog.SignalRecord
	if h.Signals != nil {
		records, err = h.Signals.List(ctx, signallog.SignalQuery{
			Since: time.UnixMilli(candles[0].OpenTime),
			Limit: 500,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(h.buildKline(candles, records))

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := page.Render(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *ChartHandler) buildKline(candles []market.Candle, records []signallog.SignalRecord) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           "1600px",
			Height:          "640px",
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("%s %s 信号回顾", strings.ToUpper(h.Symbol), h.Interval),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: chartTextPrimary, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: chartTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        chartBull,
			Color0:       chartBear,
			BorderColor:  chartBull,
			BorderColor0: chartBear,
		}),
	)

	xAxis := make([]string, len(candles))
	data := make([]opts.KlineData, len(candles))
	for i, cd := range candles {
		xAxis[i] = time.UnixMilli(cd.CloseTime).UTC().Format("01-02 15:04")
		data[i] = opts.KlineData{Value: [4]float64{cd.Open, cd.Close, cd.Low, cd.High}}
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	if markers := buildSignalMarkers(candles, records); markers != nil {
		markers.SetXAxis(xAxis)
		kline.Overlap(markers)
	}
	return kline
}

// buildSignalMarkers 把每个信号对齐到所属 K 线，画成散点。
func buildSignalMarkers(candles []market.Candle, records []signallog.SignalRecord) *charts.Scatter {
	if len(records) == 0 {
		return nil
	}
	points := make([]opts.ScatterData, len(candles))
	matched := 0
	for _, rec := range records {
		for i, cd := range candles {
			if rec.Timestamp >= cd.OpenTime && rec.Timestamp <= cd.CloseTime {
				points[i] = opts.ScatterData{
					Value:      rec.RefPrice,
					Symbol:     "triangle",
					SymbolSize: 14,
				}
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return nil
	}
	scatter := charts.NewScatter()
	scatter.AddSeries("Signal", points,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: chartSignal}),
	)
	return scatter
}
