package decision

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/explain"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/technical"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// fakeData serves fixed snapshot/news/history per ticker
type fakeData struct {
	mu        sync.Mutex
	snapshots map[string]*contracts.MarketSnapshot
	news      map[string][]contracts.NewsItem
	bars      int
	marketErr error
	newsErr   error
	panicOn   string
	calls     map[string]int
}

func newFakeData() *fakeData {
	return &fakeData{
		snapshots: make(map[string]*contracts.MarketSnapshot),
		news:      make(map[string][]contracts.NewsItem),
		bars:      200,
		calls:     make(map[string]int),
	}
}

func (f *fakeData) FetchSnapshot(_ context.Context, ticker string, _ int) (*contracts.MarketSnapshot, error) {
	f.mu.Lock()
	f.calls[ticker]++
	f.mu.Unlock()

	if ticker == f.panicOn {
		panic("provider exploded")
	}
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	snap, ok := f.snapshots[ticker]
	if !ok {
		return nil, contracts.ErrDataUnavailable
	}
	out := *snap
	return &out, nil
}

func (f *fakeData) FetchNews(_ context.Context, ticker string, _ int) ([]contracts.NewsItem, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.news[ticker], nil
}

func (f *fakeData) FetchHistory(context.Context, string, int) (contracts.PriceSeries, error) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, f.bars)
	for i := range series {
		c := 100 + 10*math.Sin(float64(i)/4)
		series[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return series, nil
}

var fixedNow = time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)

func newEngine(data *fakeData, ex contracts.Explainer) *Engine {
	log := logger.Nop()
	runner := backtest.NewRunner(backtest.DefaultConfig(), log)
	agent := technical.NewAgent(runner, data, log)
	gate := risk.NewGate(risk.DefaultThresholds(), log)

	e := NewEngine(data, data, agent, gate, explain.NewEnricher(ex, time.Second, log), DefaultOptions(), log)
	e.now = func() time.Time { return fixedNow }
	return e
}

func positiveNews() []contracts.NewsItem {
	// 4건 × (利好 + 突破) = +24 → 74
	items := make([]contracts.NewsItem, 4)
	for i := range items {
		items[i] = contracts.NewsItem{Title: "利好突破"}
	}
	return items
}

func TestAnalyze_HappyPath(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", ChangePct: 3.5, Volatility: 22, MaxDrawdown: -9}
	data.news["600519"] = positiveNews()

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519.SH"})

	assert.Equal(t, "600519", r.Ticker)
	assert.Equal(t, 74.0, r.SentimentScore)
	assert.Equal(t, contracts.SignalBuy, r.TechnicalSignal)
	assert.Equal(t, contracts.RiskApproved, r.RiskAssessment)
	assert.Equal(t, contracts.DecisionBuy, r.FinalDecision)
	assert.Equal(t, 22.0, r.VarValue)
	assert.Equal(t, fixedNow, r.AnalysisTimestamp)
	assert.Contains(t, r.Reasoning, "市场情绪积极 (74.0/100)；技术面显示买入信号；回测显示历史胜率")

	require.True(t, r.HasBacktest())
	require.NotNil(t, r.Kelly)
	assert.Equal(t, *r.BacktestWinRate, r.Kelly.WinProbability)
	assert.Equal(t, 3.0, r.Kelly.WinLossRatio, "take-profit 15 / stop-loss 5")
	assert.Equal(t, 100000.0, r.Kelly.PlannedCapital)
	assert.NoError(t, r.Validate())
}

func TestAnalyze_ScenarioA_VolatilityVeto(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", ChangePct: 5, Volatility: 60, MaxDrawdown: -15}
	data.news["600519"] = positiveNews()

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519"})

	assert.Equal(t, contracts.RiskRejected, r.RiskAssessment)
	assert.Equal(t, contracts.DecisionWait, r.FinalDecision)
	assert.Contains(t, r.Reasoning, "风控否决：波动率 60.00%")
	assert.Contains(t, r.Reasoning, "但安全第一。")
}

func TestAnalyze_ScenarioE_ShortHistory(t *testing.T) {
	data := newFakeData()
	data.bars = 40
	data.snapshots["000001"] = &contracts.MarketSnapshot{Ticker: "000001", Volatility: 20, MaxDrawdown: -5}

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "1"})

	assert.Equal(t, "000001", r.Ticker)
	assert.Nil(t, r.BacktestWinRate)
	assert.Nil(t, r.BacktestReturn)
	assert.Nil(t, r.Kelly, "kelly omitted, not zeroed")
	assert.Equal(t, contracts.RiskApproved, r.RiskAssessment)
	assert.Equal(t, contracts.DecisionWait, r.FinalDecision)
	assert.NotContains(t, r.Reasoning, "回测")
	assert.NoError(t, r.Validate())
}

func TestAnalyze_MarketDataMissingFailsClosed(t *testing.T) {
	data := newFakeData()
	data.marketErr = errors.New("timeout")
	data.news["600519"] = positiveNews()

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519"})

	assert.Equal(t, contracts.RiskRejected, r.RiskAssessment)
	assert.Equal(t, contracts.DecisionWait, r.FinalDecision)
	assert.Equal(t, contracts.SignalHold, r.TechnicalSignal)
	assert.Contains(t, r.Reasoning, risk.ReasonNoMarketData)
	assert.Equal(t, 74.0, r.SentimentScore, "news stage unaffected")
}

func TestAnalyze_NewsMissingIsNeutral(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", Volatility: 20, MaxDrawdown: -5}
	data.newsErr = contracts.ErrDataUnavailable

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519"})

	assert.Equal(t, 50.0, r.SentimentScore)
	assert.Equal(t, contracts.RiskApproved, r.RiskAssessment)
}

func TestAnalyze_InvalidStrategyOnlySkipsBacktest(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", Volatility: 20, MaxDrawdown: -5, ChangePct: -4}

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519", Strategy: "MACD"})

	assert.Nil(t, r.BacktestWinRate)
	assert.Nil(t, r.Kelly)
	assert.Equal(t, contracts.SignalSell, r.TechnicalSignal)
	assert.Equal(t, contracts.DecisionSell, r.FinalDecision)
}

func TestAnalyze_PanicDegrades(t *testing.T) {
	data := newFakeData()
	data.panicOn = "600519"

	r := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519"})

	assert.Equal(t, contracts.RiskRejected, r.RiskAssessment)
	assert.Equal(t, contracts.DecisionWait, r.FinalDecision)
	assert.Contains(t, r.Reasoning, "provider exploded")
	assert.Equal(t, fixedNow, r.AnalysisTimestamp)
	assert.NoError(t, r.Validate())
}

func TestAnalyze_CanceledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newEngine(newFakeData(), nil).Analyze(ctx, Request{Ticker: "600519"})
	assert.Equal(t, contracts.DecisionWait, r.FinalDecision)
	assert.Equal(t, contracts.RiskRejected, r.RiskAssessment)
}

func TestAnalyze_Idempotent(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", ChangePct: 1, Volatility: 30, MaxDrawdown: -10}
	data.news["600519"] = positiveNews()
	e := newEngine(data, nil)

	first := e.Analyze(context.Background(), Request{Ticker: "600519"})
	e.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second := e.Analyze(context.Background(), Request{Ticker: "600519"})

	assert.NotEqual(t, first.AnalysisTimestamp, second.AnalysisTimestamp)
	second.AnalysisTimestamp = first.AnalysisTimestamp
	assert.Equal(t, first, second)
}

func TestAnalyze_RequestOverridesSizing(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", Volatility: 20, MaxDrawdown: -5}

	r := newEngine(data, nil).Analyze(context.Background(), Request{
		Ticker:         "600519",
		PlannedCapital: 50000,
		StopLossPct:    4,
		TakeProfitPct:  10,
	})

	require.NotNil(t, r.Kelly)
	assert.Equal(t, 50000.0, r.Kelly.PlannedCapital)
	assert.Equal(t, 2.5, r.Kelly.WinLossRatio)
}

func TestAnalyze_BadSizingOnlyOmitsKelly(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"NaN capital", Request{PlannedCapital: math.NaN()}},
		{"infinite capital", Request{PlannedCapital: math.Inf(1)}},
		{"subnormal stop-loss", Request{StopLossPct: 1e-310, TakeProfitPct: 15}},
		{"NaN take-profit", Request{TakeProfitPct: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newFakeData()
			data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", ChangePct: 3.5, Volatility: 22, MaxDrawdown: -9}
			data.news["600519"] = positiveNews()

			tt.req.Ticker = "600519"
			r := newEngine(data, nil).Analyze(context.Background(), tt.req)

			assert.False(t, IsDegraded(r), r.Reasoning)
			assert.Equal(t, contracts.RiskApproved, r.RiskAssessment)
			assert.Equal(t, contracts.DecisionBuy, r.FinalDecision)
			assert.True(t, r.HasBacktest())
			assert.Nil(t, r.Kelly)
		})
	}
}

func TestAnalyze_ExplainerEnrichesButNeverDecides(t *testing.T) {
	data := newFakeData()
	data.snapshots["600519"] = &contracts.MarketSnapshot{Ticker: "600519", Volatility: 70, MaxDrawdown: -5}

	plain := newEngine(data, nil).Analyze(context.Background(), Request{Ticker: "600519"})
	enriched := newEngine(data, explain.TemplateExplainer{}).Analyze(context.Background(), Request{Ticker: "600519"})

	assert.Equal(t, plain.FinalDecision, enriched.FinalDecision)
	assert.Equal(t, plain.RiskAssessment, enriched.RiskAssessment)
	assert.Contains(t, enriched.Reasoning, "【600519】综合结论：观望。")
	assert.Contains(t, enriched.Reasoning, plain.Reasoning)
}

func TestAnalyzeBatch_OrderAndDedup(t *testing.T) {
	data := newFakeData()
	for _, tk := range []string{"600519", "000001", "300750"} {
		data.snapshots[tk] = &contracts.MarketSnapshot{Ticker: tk, Volatility: 20, MaxDrawdown: -5}
	}

	reports := newEngine(data, nil).AnalyzeBatch(context.Background(),
		[]string{"600519.SH", "1", "600519", "300750", "000001.SZ"}, Request{})

	require.Len(t, reports, 3)
	assert.Equal(t, "600519", reports[0].Ticker)
	assert.Equal(t, "000001", reports[1].Ticker)
	assert.Equal(t, "300750", reports[2].Ticker)
	for _, tk := range []string{"600519", "000001", "300750"} {
		assert.Equal(t, 1, data.calls[tk], "ticker %s analysed once", tk)
	}
}

func TestAnalyzeBatch_FailureIsolated(t *testing.T) {
	data := newFakeData()
	data.snapshots["000001"] = &contracts.MarketSnapshot{Ticker: "000001", Volatility: 20, MaxDrawdown: -5}
	data.panicOn = "600519"

	reports := newEngine(data, nil).AnalyzeBatch(context.Background(), []string{"600519", "000001"}, Request{})

	require.Len(t, reports, 2)
	assert.Equal(t, contracts.DecisionWait, reports[0].FinalDecision)
	assert.Contains(t, reports[0].Reasoning, "分析失败")
	assert.Equal(t, contracts.RiskApproved, reports[1].RiskAssessment)
}

func TestStreamBatch(t *testing.T) {
	data := newFakeData()
	e := newEngine(data, nil)
	e.options.ProviderRate = 1000

	var got []string
	n := e.StreamBatch(context.Background(), []string{"1", "2", "3", "2"}, Request{}, func(r contracts.AnalysisReport) {
		got = append(got, r.Ticker)
	})

	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []string{"000001", "000002", "000003"}, got)
}

func TestUniqueTickers(t *testing.T) {
	assert.Equal(t, []string{"600000", "000001"}, UniqueTickers([]string{"600000.SH", " 1 ", "600000", "000001"}))
	assert.Empty(t, UniqueTickers(nil))
	assert.Equal(t, []string{"600519"}, UniqueTickers([]string{"", "  ", ".SH", "600519"}))
}
