package decision

import (
	"fmt"
	"strings"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/sentiment"
)

// Decision thresholds
const (
	BuySentiment   = 70.0
	SellSentiment  = 40.0
	BacktestEdgeWR = 60.0
)

const reasoningSeparator = "；"

// Inputs are everything the verdict depends on
type Inputs struct {
	Ticker         string
	SentimentScore float64
	Signal         contracts.TechnicalSignal
	Risk           risk.Verdict
	Backtest       *contracts.BacktestMetrics // nil: no backtest
}

// Decide applies the veto-first rules. Kelly and timestamp are left empty.
// ⭐ SSOT: 리스크 거부 → 무조건 Wait (이후 규칙 없음)
func Decide(in Inputs) contracts.AnalysisReport {
	report := contracts.AnalysisReport{
		Ticker:          in.Ticker,
		SentimentScore:  in.SentimentScore,
		TechnicalSignal: in.Signal,
		VarValue:        in.Risk.Volatility,
	}
	if in.Backtest != nil {
		winRate, ret := in.Backtest.WinRate, in.Backtest.TotalReturn
		report.BacktestWinRate = &winRate
		report.BacktestReturn = &ret
	}

	if !in.Risk.Approved {
		report.RiskAssessment = contracts.RiskRejected
		report.FinalDecision = contracts.DecisionWait
		report.Reasoning = rejectedReasoning(in)
		return report
	}
	report.RiskAssessment = contracts.RiskApproved

	decision := contracts.DecisionWait
	var parts []string

	// 1. Sentiment
	switch {
	case in.SentimentScore > BuySentiment:
		decision = contracts.DecisionBuy
	case in.SentimentScore < SellSentiment:
		decision = contracts.DecisionSell
	}
	parts = append(parts, fmt.Sprintf("市场情绪%s (%.1f/100)", sentiment.Level(in.SentimentScore), in.SentimentScore))

	// 2. Technical: Buy never flips a Sell, Sell always overwrites
	switch in.Signal {
	case contracts.SignalBuy:
		parts = append(parts, "技术面显示买入信号")
		if decision != contracts.DecisionSell {
			decision = contracts.DecisionBuy
		}
	case contracts.SignalSell:
		parts = append(parts, "技术面显示卖出信号")
		decision = contracts.DecisionSell
	}

	// 3. Backtest edge
	if in.Backtest != nil {
		parts = append(parts, fmt.Sprintf("回测显示历史胜率 %.1f%%，收益率 %.1f%%", in.Backtest.WinRate, in.Backtest.TotalReturn))
		if in.Backtest.WinRate > BacktestEdgeWR && decision != contracts.DecisionSell {
			decision = contracts.DecisionBuy
		}
	}

	report.FinalDecision = decision
	report.Reasoning = strings.Join(parts, reasoningSeparator)
	return report
}

func rejectedReasoning(in Inputs) string {
	reason := strings.TrimSuffix(in.Risk.Reason, "。")
	if reason == "" {
		reason = risk.ReasonNoMarketData
	}
	return fmt.Sprintf("%s，建议等待风险释放后再考虑入场。虽然情绪评分 %.1f，技术信号为 %s，但安全第一。",
		reason, in.SentimentScore, in.Signal)
}

// Degraded is the fail-closed report for a run that could not complete
func Degraded(ticker string, err error) contracts.AnalysisReport {
	return contracts.AnalysisReport{
		Ticker:          ticker,
		SentimentScore:  sentiment.Baseline,
		TechnicalSignal: contracts.SignalHold,
		RiskAssessment:  contracts.RiskRejected,
		FinalDecision:   contracts.DecisionWait,
		Reasoning: fmt.Sprintf("%s（%s）：%v。无法完成风控评估，默认观望。",
			degradedPrefix, contracts.ErrorKind(err), err),
	}
}

const degradedPrefix = "分析失败"

// IsDegraded reports whether rep came from Degraded
func IsDegraded(rep contracts.AnalysisReport) bool {
	return strings.HasPrefix(rep.Reasoning, degradedPrefix)
}
