package notifier

import (
	"fmt"
	"strings"
	"time"

	"solwatch/internal/risk"
	"solwatch/internal/signal"
)

// 消息文案集中在这里，回路逻辑里只调用不拼串。

func exitReasonText(r risk.ExitReason) string {
	switch r {
	case risk.ExitStopLoss:
		return "止损"
	case risk.ExitTakeProfit2:
		return "TP2 止盈"
	case risk.ExitTrailingStop:
		return "移动止损"
	case risk.ExitTimeStop:
		return "超时退出"
	case risk.ExitManual:
		return "手动平仓"
	default:
		return string(r)
	}
}

// FormatEntry 开仓通知。
func FormatEntry(sig *signal.Signal, pos risk.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 SOL 挤压突破开仓\n")
	fmt.Fprintf(&b, "时间: %s\n", pos.EntryTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "入场价: %.4f\n", pos.EntryPrice)
	fmt.Fprintf(&b, "仓位: %.0f%%\n", pos.SizeFraction*100)
	fmt.Fprintf(&b, "止损: %.4f | TP1: %.4f | TP2: %.4f\n", pos.StopLoss, pos.TP1, pos.TP2)
	if sig != nil {
		fmt.Fprintf(&b, "带宽: %.2f%% 稳定度: %.2f\n", sig.SqueezeWidth, sig.StabilityScore)
		if sig.Quality.Grade != "" {
			fmt.Fprintf(&b, "信号评级: %s (%d 分)\n", sig.Quality.Grade, sig.Quality.Score)
		}
		if sig.Reason != "" {
			fmt.Fprintf(&b, "依据: %s\n", sig.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTP1 第一目标触发，转入移动止损阶段。
func FormatTP1(pos risk.Position, price float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ SOL 触及 TP1，启动移动止损\n")
	fmt.Fprintf(&b, "当前价: %.4f\n", price)
	fmt.Fprintf(&b, "移动止损: %.4f\n", pos.TrailingStop)
	if pos.BreakevenActive {
		fmt.Fprintf(&b, "止损已上移至保本位: %.4f\n", pos.StopLoss)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatExit 平仓通知。
func FormatExit(ev *risk.ExitEvent) string {
	var b strings.Builder
	emoji := "🔔"
	if ev.PnLFraction > 0 {
		emoji = "💰"
	} else if ev.PnLFraction < 0 {
		emoji = "⚠️"
	}
	fmt.Fprintf(&b, "%s SOL 平仓 [%s]\n", emoji, exitReasonText(ev.Reason))
	fmt.Fprintf(&b, "入场: %.4f → 平仓: %.4f\n", ev.EntryPrice, ev.ExitPrice)
	fmt.Fprintf(&b, "收益率: %+.2f%%\n", ev.PnLFraction*100)
	fmt.Fprintf(&b, "持仓时长: %s\n", formatDuration(time.Duration(ev.HoldHours*float64(time.Hour))))
	return strings.TrimRight(b.String(), "\n")
}

// FormatStatus 当前持仓快照，供 /status 查询。
func FormatStatus(pos risk.Position, price float64, oiChange float64, oiValid bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 SOL 监控状态\n")
	if price > 0 {
		fmt.Fprintf(&b, "最新价: %.4f\n", price)
	}
	if oiValid {
		fmt.Fprintf(&b, "持仓量 1h 变化: %+.2f%%\n", oiChange*100)
	}
	switch pos.State {
	case risk.StateIdle:
		fmt.Fprintf(&b, "状态: 空仓等待信号\n")
	default:
		fmt.Fprintf(&b, "状态: 持仓中 (%s)\n", pos.State)
		fmt.Fprintf(&b, "入场: %.4f @ %s\n", pos.EntryPrice, pos.EntryTime.Format("01-02 15:04"))
		fmt.Fprintf(&b, "止损: %.4f | TP1: %.4f | TP2: %.4f\n", pos.StopLoss, pos.TP1, pos.TP2)
		if pos.TrailingActive {
			fmt.Fprintf(&b, "移动止损: %.4f (最高 %.4f)\n", pos.TrailingStop, pos.HighestFavorable)
		}
		if price > 0 {
			fmt.Fprintf(&b, "浮动收益: %+.2f%%\n", pos.PnLFraction(price)*100)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOIWarn 持仓量连续回落的提示，仅预警不动仓。
func FormatOIWarn(window time.Duration) string {
	return fmt.Sprintf("⚠️ SOL 持仓量最近 %s 持续回落，注意多头动能衰减", formatDuration(window))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
