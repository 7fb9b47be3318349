package contracts

import "context"

// MarketDataProvider returns the snapshot statistics for a ticker
// ⭐ SSOT: 시세 수집은 이 인터페이스 뒤에서만
type MarketDataProvider interface {
	FetchSnapshot(ctx context.Context, ticker string, lookbackDays int) (*MarketSnapshot, error)
}

// PriceHistoryProvider returns the daily bars used for backtesting
type PriceHistoryProvider interface {
	FetchHistory(ctx context.Context, ticker string, lookbackDays int) (PriceSeries, error)
}

// NewsProvider returns recent headlines for a ticker
type NewsProvider interface {
	FetchNews(ctx context.Context, ticker string, limit int) ([]NewsItem, error)
}

// NameSource resolves a ticker to its display name
type NameSource interface {
	LookupName(ctx context.Context, ticker string) (string, error)
}

// ExplainField names the report field an explainer enriches
type ExplainField string

const (
	ExplainReasoning   ExplainField = "reasoning"
	ExplainRiskWarning ExplainField = "risk_warning"
)

// Explainer adds natural-language commentary to a report field
// Callers must keep a deterministic fallback; failure never changes the verdict.
type Explainer interface {
	Explain(ctx context.Context, field ExplainField, report AnalysisReport) (string, error)
}
