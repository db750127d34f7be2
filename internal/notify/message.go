package notify

import (
	"fmt"
	"strings"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// strategyTitles are display names for builtin strategies
var strategyTitles = map[string]string{
	"golden_cross":      "🔺 均线金叉",
	"macd_cross":        "📊 MACD 金叉",
	"volume_break":      "📈 放量突破",
	"rsi_oversold":      "🔄 RSI 超卖反弹",
	"bollinger_rebound": "📉 布林带下轨反弹",
}

func strategyTitle(name string) string {
	if t, ok := strategyTitles[name]; ok {
		return t
	}
	return name
}

// BuildMessage renders a run summary with up to topN signals per strategy.
// names maps instrument codes to display names and may be nil.
func BuildMessage(summary *contracts.RunSummary, topN int, names map[string]string) Message {
	date := contracts.FormatDate(summary.ScanDate)
	title := fmt.Sprintf("📈 A 股策略扫描结果 - %s", date)

	var md, txt strings.Builder
	fmt.Fprintf(&md, "## %s\n\n", title)
	fmt.Fprintf(&md, "**信号**: %d | **扫描**: %d/%d | **跳过**: %d | **失败**: %d\n\n",
		summary.TotalSignals(), summary.Scanned, summary.Instruments, len(summary.Skipped), len(summary.Failed)+len(summary.SyncFailures))
	fmt.Fprintf(&txt, "%s\nsignals=%d scanned=%d/%d skipped=%d failed=%d\n",
		title, summary.TotalSignals(), summary.Scanned, summary.Instruments, len(summary.Skipped), len(summary.Failed)+len(summary.SyncFailures))

	if summary.TotalSignals() == 0 {
		md.WriteString("> ⚠️ 今日无信号\n")
		txt.WriteString("no signals\n")
	}

	for _, strategy := range summary.Strategies {
		count := summary.Counts[strategy]
		if count == 0 {
			continue
		}

		fmt.Fprintf(&md, "### %s（%d只）\n\n", strategyTitle(strategy), count)
		md.WriteString("| 代码 | 名称 | 强度 | 说明 |\n|------|------|------|------|\n")
		fmt.Fprintf(&txt, "\n[%s] %d\n", strategy, count)

		top := summary.TopSignals(strategy, topN)
		for _, sig := range top {
			name := names[sig.InstrumentCode]
			fmt.Fprintf(&md, "| %s | %s | %.2f | %s |\n", sig.InstrumentCode, name, sig.Payload.Magnitude, sig.Payload.Description)
			fmt.Fprintf(&txt, "%s %s %.2f %s\n", sig.InstrumentCode, name, sig.Payload.Magnitude, sig.Payload.Description)
		}
		if count > len(top) {
			fmt.Fprintf(&md, "\n> ...共%d只，详见数据库\n", count)
			fmt.Fprintf(&txt, "... %d more\n", count-len(top))
		}
		md.WriteString("\n")
	}

	return Message{Title: title, Markdown: md.String(), Text: txt.String()}
}
