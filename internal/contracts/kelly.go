package contracts

// KellyResult carries the Kelly sizing inputs and outputs
// KellyFraction is clamped at 0 while ExpectedValue keeps its sign.
type KellyResult struct {
	WinProbability     float64 `json:"win_probability"`
	WinLossRatio       float64 `json:"win_loss_ratio"`
	PlannedCapital     float64 `json:"planned_capital"`
	StopLossPct        float64 `json:"stop_loss_pct"`
	TakeProfitPct      float64 `json:"take_profit_pct"`
	KellyFraction      float64 `json:"kelly_fraction"`
	RecommendedAmount  float64 `json:"recommended_amount"`
	HalfKellyAmount    float64 `json:"half_kelly_amount"`
	ExpectedValue      float64 `json:"expected_value"`
	IsPositiveEV       bool    `json:"is_positive_ev"`
	RiskWarning        string  `json:"risk_warning"`
	ActualWinLossRatio float64 `json:"actual_win_loss_ratio"`
}
