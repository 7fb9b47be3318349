package risk

import (
	"fmt"
	"math"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// =============================================================================
// Thresholds
// =============================================================================

// Thresholds 리스크 게이트 한도 (%)
type Thresholds struct {
	MaxVolatility float64 `yaml:"max_volatility" json:"max_volatility"`
	MaxDrawdown   float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

// DefaultThresholds 기본 한도: 변동성 50%, 낙폭 20%
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxVolatility: 50.0,
		MaxDrawdown:   20.0,
	}
}

// =============================================================================
// Verdict
// =============================================================================

// Criterion is one threshold comparison of the gate
type Criterion struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// Verdict 게이트 판정 결과
type Verdict struct {
	Approved   bool        `json:"approved"`
	Reason     string      `json:"reason"`
	Volatility float64     `json:"volatility"`
	Drawdown   float64     `json:"drawdown"` // magnitude
	Criteria   []Criterion `json:"criteria"`
}

// Assessment maps the verdict onto the report enum
func (v Verdict) Assessment() contracts.RiskAssessment {
	if v.Approved {
		return contracts.RiskApproved
	}
	return contracts.RiskRejected
}

// ReasonNoMarketData is the fail-closed rejection text
const ReasonNoMarketData = "无法获取市场数据进行风控评估"

// Evaluate applies the hard veto: reject if either limit is exceeded.
// Drawdown is compared by magnitude, so signed input is accepted.
func Evaluate(volatility, maxDrawdown float64, th Thresholds) Verdict {
	drawdown := maxDrawdown
	if drawdown < 0 {
		drawdown = -drawdown
	}

	criteria := []Criterion{
		{
			Name:      "volatility",
			Threshold: th.MaxVolatility,
			Actual:    volatility,
			Pass:      within(volatility, th.MaxVolatility),
		},
		{
			Name:      "max_drawdown",
			Threshold: th.MaxDrawdown,
			Actual:    drawdown,
			Pass:      within(drawdown, th.MaxDrawdown),
		},
	}

	v := Verdict{
		Approved:   criteria[0].Pass && criteria[1].Pass,
		Volatility: volatility,
		Drawdown:   drawdown,
		Criteria:   criteria,
	}
	if v.Approved {
		v.Reason = fmt.Sprintf("风控通过：波动率 %.2f%%，回撤 %.2f%% 在可接受范围内", volatility, drawdown)
	} else {
		v.Reason = fmt.Sprintf("风控否决：波动率 %.2f%% 或回撤 %.2f%% 超过阈值", volatility, drawdown)
	}
	return v
}

// within 은 임계값 이하일 때만 통과 (NaN/Inf 는 거부)
func within(actual, limit float64) bool {
	if math.IsNaN(actual) || math.IsInf(actual, 0) {
		return false
	}
	return actual <= limit
}

// EvaluateSnapshot evaluates a snapshot; nil means no market data and rejects
func EvaluateSnapshot(snap *contracts.MarketSnapshot, th Thresholds) Verdict {
	if snap == nil {
		return Verdict{Approved: false, Reason: ReasonNoMarketData}
	}
	return Evaluate(snap.Volatility, snap.MaxDrawdown, th)
}

// =============================================================================
// Gate
// =============================================================================

// Gate 분석 파이프라인 리스크 게이트
// ⭐ SSOT: 매수 판단 전 리스크 거부는 여기서만
type Gate struct {
	thresholds Thresholds
	logger     *logger.Logger
}

// NewGate 새 리스크 게이트 생성
func NewGate(th Thresholds, log *logger.Logger) *Gate {
	return &Gate{
		thresholds: th,
		logger:     log,
	}
}

// Thresholds returns the configured limits
func (g *Gate) Thresholds() Thresholds {
	return g.thresholds
}

// Check evaluates the snapshot and logs rejections
func (g *Gate) Check(ticker string, snap *contracts.MarketSnapshot) Verdict {
	v := EvaluateSnapshot(snap, g.thresholds)

	if !v.Approved {
		g.logger.WithFields(map[string]interface{}{
			"ticker":         ticker,
			"volatility":     v.Volatility,
			"drawdown":       v.Drawdown,
			"max_volatility": g.thresholds.MaxVolatility,
			"max_drawdown":   g.thresholds.MaxDrawdown,
		}).Warn("Risk gate rejected")
	}

	return v
}
