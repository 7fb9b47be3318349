package risk

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name       string
		volatility float64
		drawdown   float64
		approved   bool
	}{
		{"volatility breach", 60, 15, false},
		{"drawdown breach", 30, 25, false},
		{"signed drawdown breach", 30, -25, false},
		{"both within limits", 30, -10, true},
		{"at the limits", 50, 20, true},
		{"just above volatility", 50.01, 0, false},
		{"zero risk", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tt.volatility, tt.drawdown, th)
			assert.Equal(t, tt.approved, v.Approved)
			require.Len(t, v.Criteria, 2)
			assert.GreaterOrEqual(t, v.Drawdown, 0.0)
			if tt.approved {
				assert.Contains(t, v.Reason, "风控通过")
				assert.Equal(t, contracts.RiskApproved, v.Assessment())
			} else {
				assert.Contains(t, v.Reason, "风控否决")
				assert.Equal(t, contracts.RiskRejected, v.Assessment())
			}
		})
	}
}

func TestEvaluate_VolatilityBreachCriteria(t *testing.T) {
	v := Evaluate(60, 15, DefaultThresholds())

	assert.False(t, v.Criteria[0].Pass)
	assert.Equal(t, "volatility", v.Criteria[0].Name)
	assert.True(t, v.Criteria[1].Pass)
	assert.Equal(t, "风控否决：波动率 60.00% 或回撤 15.00% 超过阈值", v.Reason)
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	v := Evaluate(35, 5, Thresholds{MaxVolatility: 30, MaxDrawdown: 10})
	assert.False(t, v.Approved)
}

func TestEvaluate_NonFiniteFailsClosed(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name       string
		volatility float64
		drawdown   float64
	}{
		{"NaN volatility", math.NaN(), 5},
		{"infinite volatility", math.Inf(1), 5},
		{"NaN drawdown", 20, math.NaN()},
		{"negative infinite drawdown", 20, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Evaluate(tt.volatility, tt.drawdown, th).Approved)
		})
	}
}

func TestEvaluateSnapshot_NilFailsClosed(t *testing.T) {
	v := EvaluateSnapshot(nil, DefaultThresholds())

	assert.False(t, v.Approved)
	assert.Equal(t, ReasonNoMarketData, v.Reason)
	assert.Equal(t, contracts.RiskRejected, v.Assessment())
}

func TestGate_CheckLogsRejection(t *testing.T) {
	var buf bytes.Buffer
	g := NewGate(DefaultThresholds(), logger.NewWithWriter(&buf, zerolog.DebugLevel))

	v := g.Check("600000", &contracts.MarketSnapshot{Volatility: 80, MaxDrawdown: -5})
	assert.False(t, v.Approved)
	assert.Contains(t, buf.String(), "Risk gate rejected")
	assert.Contains(t, buf.String(), "600000")

	buf.Reset()
	v = g.Check("600000", &contracts.MarketSnapshot{Volatility: 20, MaxDrawdown: -5})
	assert.True(t, v.Approved)
	assert.Empty(t, buf.String())
}
