package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReport() AnalysisReport {
	return AnalysisReport{
		Ticker:            "600000",
		SentimentScore:    65.5,
		TechnicalSignal:   SignalBuy,
		RiskAssessment:    RiskApproved,
		VarValue:          23.4,
		FinalDecision:     DecisionBuy,
		Reasoning:         "市场情绪中性 (65.5/100)；技术面显示买入信号",
		AnalysisTimestamp: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
	}
}

func TestAnalysisReport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *AnalysisReport)
		wantErr bool
	}{
		{"valid", func(r *AnalysisReport) {}, false},
		{"rejected with wait", func(r *AnalysisReport) {
			r.RiskAssessment = RiskRejected
			r.FinalDecision = DecisionWait
		}, false},
		{"rejected with buy", func(r *AnalysisReport) {
			r.RiskAssessment = RiskRejected
		}, true},
		{"sentiment above range", func(r *AnalysisReport) { r.SentimentScore = 100.5 }, true},
		{"sentiment below range", func(r *AnalysisReport) { r.SentimentScore = -1 }, true},
		{"negative var", func(r *AnalysisReport) { r.VarValue = -0.1 }, true},
		{"empty ticker", func(r *AnalysisReport) { r.Ticker = "" }, true},
		{"unknown signal", func(r *AnalysisReport) { r.TechnicalSignal = "Strong Buy" }, true},
		{"unknown decision", func(r *AnalysisReport) { r.FinalDecision = "Hold" }, true},
		{"unknown assessment", func(r *AnalysisReport) { r.RiskAssessment = "Pending" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalysisReport_JSON(t *testing.T) {
	r := validReport()

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"ticker", "sentiment_score", "technical_signal", "risk_assessment",
		"var_value", "final_decision", "reasoning", "backtest_win_rate",
		"backtest_return", "analysis_timestamp",
	} {
		assert.Contains(t, raw, key)
	}
	// nil 이면 kelly_result 키 자체가 없어야 함
	assert.NotContains(t, raw, "kelly_result")
	assert.Nil(t, raw["backtest_win_rate"])
	assert.False(t, r.HasBacktest())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"RSI", StrategyRSI, false},
		{"rsi", StrategyRSI, false},
		{"MA", StrategyMA, false},
		{" bollinger ", StrategyBollinger, false},
		{"MACD", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("fetch 600000: %w", ErrDataUnavailable), "DataUnavailable"},
		{fmt.Errorf("run: %w", ErrInsufficientHistory), "InsufficientHistory"},
		{ErrInvalidStrategy, "InvalidStrategy"},
		{fmt.Errorf("kelly: %w", ErrConfiguration), "ConfigurationError"},
		{errors.New("boom"), "Internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestPriceSeries_Sorted(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	s := PriceSeries{{Date: d(3), Close: 3}, {Date: d(1), Close: 1}, {Date: d(2), Close: 2}}

	sorted := s.Sorted()

	assert.Equal(t, []float64{1, 2, 3}, sorted.Closes())
	assert.Equal(t, 3.0, s[0].Close, "original must not be reordered")
}

func TestMarketSnapshot_DrawdownMagnitude(t *testing.T) {
	assert.Equal(t, 12.5, (&MarketSnapshot{MaxDrawdown: -12.5}).DrawdownMagnitude())
	assert.Equal(t, 0.0, (&MarketSnapshot{}).DrawdownMagnitude())
}
