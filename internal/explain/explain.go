// Package explain enriches report text through an optional Explainer.
// Every field has a deterministic fallback, so the verdict never depends on it.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/kelly"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// DefaultTimeout bounds one Explain call
const DefaultTimeout = 5 * time.Second

var decisionLabels = map[contracts.Decision]string{
	contracts.DecisionBuy:  "买入",
	contracts.DecisionSell: "卖出",
	contracts.DecisionWait: "观望",
}

var signalLabels = map[contracts.TechnicalSignal]string{
	contracts.SignalBuy:  "买入",
	contracts.SignalSell: "卖出",
	contracts.SignalHold: "持有",
}

// DecisionLabel returns the display label of a decision
func DecisionLabel(d contracts.Decision) string {
	if l, ok := decisionLabels[d]; ok {
		return l
	}
	return string(d)
}

// SignalLabel returns the display label of a technical signal
func SignalLabel(s contracts.TechnicalSignal) string {
	if l, ok := signalLabels[s]; ok {
		return l
	}
	return string(s)
}

// TemplateExplainer renders fixed templates from report fields
type TemplateExplainer struct{}

// Explain implements contracts.Explainer
func (TemplateExplainer) Explain(_ context.Context, field contracts.ExplainField, r contracts.AnalysisReport) (string, error) {
	switch field {
	case contracts.ExplainReasoning:
		var b strings.Builder
		fmt.Fprintf(&b, "【%s】综合结论：%s。", r.Ticker, DecisionLabel(r.FinalDecision))
		b.WriteString(r.Reasoning)
		if r.RiskAssessment == contracts.RiskApproved && r.Kelly != nil && r.Kelly.IsPositiveEV {
			fmt.Fprintf(&b, "。凯利公式建议仓位 %.2f%%，约 %.2f 元", r.Kelly.KellyFraction*100, r.Kelly.RecommendedAmount)
		}
		return b.String(), nil

	case contracts.ExplainRiskWarning:
		if r.Kelly == nil {
			return "", fmt.Errorf("no kelly result: %w", contracts.ErrDataUnavailable)
		}
		return r.Kelly.RiskWarning + " " + kelly.Advice(r.Kelly), nil

	default:
		return "", fmt.Errorf("%w: unknown explain field %q", contracts.ErrConfiguration, field)
	}
}

// Enricher calls an Explainer with a timeout and falls back on failure
type Enricher struct {
	explainer contracts.Explainer
	timeout   time.Duration
	logger    *logger.Logger
}

// NewEnricher creates an enricher; a nil explainer always yields the fallback
func NewEnricher(ex contracts.Explainer, timeout time.Duration, log *logger.Logger) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{explainer: ex, timeout: timeout, logger: log}
}

// Field returns the explainer's text for field, or fallback
func (e *Enricher) Field(ctx context.Context, field contracts.ExplainField, r contracts.AnalysisReport, fallback string) (text string) {
	if e == nil || e.explainer == nil {
		return fallback
	}

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.WithTicker(r.Ticker).WithField("panic", rec).Error("Explainer panicked")
			text = fallback
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.explainer.Explain(ctx, field, r)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			e.logger.WithTicker(r.Ticker).WithError(err).WithField("field", field).Debug("Explainer fell back")
		}
		return fallback
	}
	return out
}
