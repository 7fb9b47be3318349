package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker...]",
	Short: "종목 분석 (전체 파이프라인)",
	Long: `하나 이상의 종목에 대해 전체 분석 파이프라인을 실행합니다.

파이프라인:
  시세/뉴스 수집 → 감성 점수 → 기술 신호 + 백테스트
  → 리스크 게이트 (거부권) → 결정 → 켈리 사이징

여러 종목은 워커 풀로 동시에 분석되며 입력 순서대로 출력됩니다.
한 종목의 실패는 다른 종목에 영향을 주지 않습니다 (观望 보고서).

Example:
  go run ./cmd/stockmate analyze 600519
  go run ./cmd/stockmate analyze 600519.SH 000001 --strategy MA
  go run ./cmd/stockmate analyze 600519 --capital 50000 --stop-loss 8 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeStrategy   string
	analyzeCapital    float64
	analyzeStopLoss   float64
	analyzeTakeProfit float64
	analyzeJSON       bool
	analyzeNoSave     bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeStrategy, "strategy", "", "백테스트 전략 (RSI|MA|Bollinger, 기본: 프로파일)")
	analyzeCmd.Flags().Float64Var(&analyzeCapital, "capital", 0, "계획 자본 (元, 기본: 프로파일)")
	analyzeCmd.Flags().Float64Var(&analyzeStopLoss, "stop-loss", 0, "손절 % (기본: 프로파일)")
	analyzeCmd.Flags().Float64Var(&analyzeTakeProfit, "take-profit", 0, "익절 % (기본: 프로파일)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "보고서를 저장하지 않음")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	template, err := analyzeTemplate()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if template.Ticker, err = contracts.ParseTicker(args[0]); err != nil {
			return err
		}
	} else if len(decision.UniqueTickers(args)) == 0 {
		return fmt.Errorf("%w: no valid tickers in %q", contracts.ErrConfiguration, args)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var reports []contracts.AnalysisReport
	if len(args) == 1 {
		reports = []contracts.AnalysisReport{a.engine.Analyze(ctx, template)}
	} else {
		reports = a.engine.AnalyzeBatch(ctx, args, template)
	}

	if !analyzeNoSave {
		for _, r := range reports {
			if err := a.store.Save(ctx, r); err != nil {
				a.log.WithError(err).WithTicker(r.Ticker).Warn("Failed to save report")
			}
		}
	}

	if analyzeJSON {
		if len(reports) == 1 {
			return printJSON(reports[0])
		}
		return printJSON(reports)
	}

	for _, r := range reports {
		printReport(a.displayName(ctx, r.Ticker), r)
	}
	if len(reports) > 1 {
		printDecisionSummary(reports)
	}
	return nil
}

// analyzeTemplate builds the per-request overrides from flags
func analyzeTemplate() (decision.Request, error) {
	var req decision.Request
	if analyzeStrategy != "" {
		s, err := contracts.ParseStrategy(analyzeStrategy)
		if err != nil {
			return req, err
		}
		req.Strategy = s
	}
	if err := requireFinite(map[string]float64{
		"capital":     analyzeCapital,
		"stop-loss":   analyzeStopLoss,
		"take-profit": analyzeTakeProfit,
	}); err != nil {
		return req, err
	}
	if analyzeCapital < 0 || analyzeStopLoss < 0 || analyzeTakeProfit < 0 {
		return req, fmt.Errorf("%w: capital, stop-loss and take-profit must be >= 0", contracts.ErrConfiguration)
	}
	req.PlannedCapital = analyzeCapital
	req.StopLossPct = analyzeStopLoss
	req.TakeProfitPct = analyzeTakeProfit
	return req, nil
}

func printDecisionSummary(reports []contracts.AnalysisReport) {
	PrintHeader(fmt.Sprintf("Summary (%d tickers)", len(reports)))
	widths := []int{8, 6, 10, 9, 8}
	PrintTableHeader([]string{"Ticker", "Final", "Risk", "Sentiment", "Signal"}, widths)
	for _, r := range reports {
		PrintTableRow([]string{
			r.Ticker,
			string(r.FinalDecision),
			string(r.RiskAssessment),
			fmt.Sprintf("%.1f", r.SentimentScore),
			string(r.TechnicalSignal),
		}, widths)
	}
}
