package contracts

import (
	"fmt"
	"time"
)

// TechnicalSignal is the coarse signal derived from today's move
type TechnicalSignal string

const (
	SignalBuy  TechnicalSignal = "Buy"
	SignalSell TechnicalSignal = "Sell"
	SignalHold TechnicalSignal = "Hold"
)

// RiskAssessment is the outcome of the risk gate
type RiskAssessment string

const (
	RiskApproved RiskAssessment = "Approved"
	RiskRejected RiskAssessment = "Rejected"
)

// Decision is the final recommendation
type Decision string

const (
	DecisionBuy  Decision = "Buy"
	DecisionSell Decision = "Sell"
	DecisionWait Decision = "Wait"
)

// AnalysisReport is the only artifact handed to CLI/API consumers
// ⭐ SSOT: RiskAssessment == Rejected 이면 FinalDecision 은 항상 Wait
type AnalysisReport struct {
	Ticker            string          `json:"ticker"`
	SentimentScore    float64         `json:"sentiment_score"`
	TechnicalSignal   TechnicalSignal `json:"technical_signal"`
	RiskAssessment    RiskAssessment  `json:"risk_assessment"`
	VarValue          float64         `json:"var_value"`
	FinalDecision     Decision        `json:"final_decision"`
	Reasoning         string          `json:"reasoning"`
	BacktestWinRate   *float64        `json:"backtest_win_rate"`
	BacktestReturn    *float64        `json:"backtest_return"`
	Kelly             *KellyResult    `json:"kelly_result,omitempty"`
	AnalysisTimestamp time.Time       `json:"analysis_timestamp"`
}

// Validate checks the structural invariants of a report
func (r *AnalysisReport) Validate() error {
	if r.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	if r.SentimentScore < 0 || r.SentimentScore > 100 {
		return fmt.Errorf("sentiment_score %.2f out of [0,100]", r.SentimentScore)
	}
	if r.VarValue < 0 {
		return fmt.Errorf("var_value %.4f is negative", r.VarValue)
	}
	switch r.TechnicalSignal {
	case SignalBuy, SignalSell, SignalHold:
	default:
		return fmt.Errorf("unknown technical_signal %q", r.TechnicalSignal)
	}
	switch r.FinalDecision {
	case DecisionBuy, DecisionSell, DecisionWait:
	default:
		return fmt.Errorf("unknown final_decision %q", r.FinalDecision)
	}
	switch r.RiskAssessment {
	case RiskApproved:
	case RiskRejected:
		if r.FinalDecision != DecisionWait {
			return fmt.Errorf("rejected report must decide Wait, got %s", r.FinalDecision)
		}
	default:
		return fmt.Errorf("unknown risk_assessment %q", r.RiskAssessment)
	}
	return nil
}

// HasBacktest reports whether backtest fields were filled
func (r *AnalysisReport) HasBacktest() bool {
	return r.BacktestWinRate != nil
}
