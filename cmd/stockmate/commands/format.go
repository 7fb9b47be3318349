package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/explain"
	"github.com/Howie-Waves/StockMate/internal/kelly"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/sentiment"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const keyWidth = 12

// PrintHeader prints a titled double-line header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func decisionIcon(d contracts.Decision) string {
	switch d {
	case contracts.DecisionBuy:
		return "🟢"
	case contracts.DecisionSell:
		return "🔴"
	default:
		return "⏸️"
	}
}

// printReport renders one analysis report
func printReport(title string, r contracts.AnalysisReport) {
	PrintHeader(title)
	PrintKeyValue("决策", fmt.Sprintf("%s %s (%s)", decisionIcon(r.FinalDecision), explain.DecisionLabel(r.FinalDecision), r.FinalDecision))
	PrintKeyValue("风控", string(r.RiskAssessment))
	PrintKeyValue("情绪", fmt.Sprintf("%.1f/100 (%s)", r.SentimentScore, sentiment.Level(r.SentimentScore)))
	PrintKeyValue("技术信号", explain.SignalLabel(r.TechnicalSignal))
	PrintKeyValue("年化波动率", fmt.Sprintf("%.2f%%", r.VarValue))
	if r.HasBacktest() {
		PrintKeyValue("回测胜率", fmt.Sprintf("%.2f%%", *r.BacktestWinRate))
		PrintKeyValue("回测收益", fmt.Sprintf("%+.2f%%", *r.BacktestReturn))
	}
	PrintSeparator()
	fmt.Printf("  %s\n", r.Reasoning)

	if r.Kelly != nil {
		PrintSeparator()
		printKellyBody(r.Kelly)
	}
	PrintSeparator()
	fmt.Printf("  %s\n", r.AnalysisTimestamp.Format("2006-01-02 15:04:05"))
}

// printSnapshot renders market statistics
func printSnapshot(title string, s *contracts.MarketSnapshot) {
	PrintHeader(title)
	PrintKeyValue("现价", fmt.Sprintf("%.2f", s.CurrentPrice))
	PrintKeyValue("涨跌幅", fmt.Sprintf("%+.2f%%", s.ChangePct))
	PrintKeyValue("年化波动率", fmt.Sprintf("%.2f%%", s.Volatility))
	PrintKeyValue("最大回撤", fmt.Sprintf("%.2f%%", s.MaxDrawdown))
	PrintKeyValue("区间高/低", fmt.Sprintf("%.2f / %.2f", s.PeriodHigh, s.PeriodLow))
	PrintKeyValue("平均成交量", fmt.Sprintf("%.0f", s.AvgVolume))
	PrintKeyValue("区间", fmt.Sprintf("%s (%d bars)", s.DateRange, s.DataCount))
}

// printBacktestTable renders one row per strategy
func printBacktestTable(results []*contracts.BacktestMetrics) {
	widths := []int{10, 10, 10, 8, 10, 6}
	PrintTableHeader([]string{"Strategy", "Return", "WinRate", "Sharpe", "MaxDD", "Trades"}, widths)
	for _, m := range results {
		PrintTableRow([]string{
			string(m.Strategy),
			fmt.Sprintf("%+.2f%%", m.TotalReturn),
			fmt.Sprintf("%.2f%%", m.WinRate),
			fmt.Sprintf("%.2f", m.SharpeRatio),
			fmt.Sprintf("%.2f%%", m.MaxDrawdown),
			fmt.Sprintf("%d", m.TotalTrades),
		}, widths)
	}
}

func printKellyBody(k *contracts.KellyResult) {
	PrintKeyValue("胜率", fmt.Sprintf("%.2f%%", k.WinProbability))
	PrintKeyValue("盈亏比", fmt.Sprintf("%.2f", k.WinLossRatio))
	PrintKeyValue("凯利比例", fmt.Sprintf("%.2f%%", k.KellyFraction*100))
	PrintKeyValue("建议仓位", fmt.Sprintf("%.2f / %.2f 元", k.RecommendedAmount, k.PlannedCapital))
	PrintKeyValue("半凯利", fmt.Sprintf("%.2f 元", k.HalfKellyAmount))
	PrintKeyValue("期望值", fmt.Sprintf("%.4f", k.ExpectedValue))
	fmt.Printf("  %s\n", k.RiskWarning)
	fmt.Printf("  %s\n", kelly.Advice(k))
}

// printVerdict renders the gate criteria
func printVerdict(title string, v risk.Verdict) {
	PrintHeader(title)
	for _, c := range v.Criteria {
		mark := "✅"
		if !c.Pass {
			mark = "❌"
		}
		PrintKeyValue(c.Name, fmt.Sprintf("%s %.2f%% (limit %.2f%%)", mark, c.Actual, c.Threshold))
	}
	PrintSeparator()
	if v.Approved {
		PrintSuccess("Approved")
	} else {
		PrintError("Rejected: " + v.Reason)
	}
}
