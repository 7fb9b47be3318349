package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/marketdata"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data [ticker]",
	Short: "시세 통계 / 뉴스 조회",
	Long: `종목의 시세 통계(현재가, 변동률, 연환산 변동성, 최대 낙폭)와
최근 뉴스를 조회합니다.

Subcommands:
  import  - JSON fixture 를 저장소에 적재

Example:
  go run ./cmd/stockmate data 600519
  go run ./cmd/stockmate data 600519 --days 90 --news 5
  go run ./cmd/stockmate data import ./testdata/market.json`,
	Args: cobra.ExactArgs(1),
	RunE: runData,
}

var dataImportCmd = &cobra.Command{
	Use:   "import [fixture.json]",
	Short: "JSON fixture 적재",
	Long: `{"600519": {"name": "...", "bars": [...], "news": [...]}} 형식의
fixture 를 설정된 저장소(PostgreSQL, 없으면 메모리)에 적재합니다.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataImport,
}

var (
	dataDays int
	dataNews int
	dataJSON bool
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataImportCmd)

	// Flags
	dataCmd.Flags().IntVar(&dataDays, "days", 0, "조회 기간 (일, 기본: 프로파일)")
	dataCmd.Flags().IntVar(&dataNews, "news", 0, "함께 출력할 뉴스 수")
	dataCmd.Flags().BoolVar(&dataJSON, "json", false, "JSON 출력")
}

func runData(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ticker, err := contracts.ParseTicker(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	days := dataDays
	if days <= 0 {
		days = a.engine.Options().LookbackDays
	}

	snap, err := a.provider.FetchSnapshot(ctx, ticker, days)
	if err != nil {
		return err
	}

	var news []contracts.NewsItem
	if dataNews > 0 {
		news, err = a.provider.FetchNews(ctx, ticker, dataNews)
		if err != nil {
			a.log.WithError(err).WithTicker(ticker).Warn("News unavailable")
		}
	}

	if dataJSON {
		return printJSON(map[string]interface{}{"snapshot": snap, "news": news})
	}

	printSnapshot(a.displayName(ctx, ticker), snap)
	if len(news) > 0 {
		PrintSeparator()
		for i, n := range news {
			fmt.Printf("   %d. [%s] %s (%s)\n", i+1, n.PublishTime.Format("2006-01-02"), n.Title, n.Source)
			if n.Content != "" {
				fmt.Printf("      %s\n", n.Content)
			}
		}
	}
	return nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fx, err := marketdata.ReadFixture(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db == nil {
		PrintWarning("DATABASE_URL not set: data is kept in memory for this process only")
	}

	n, err := marketdata.Import(ctx, a.writer, fx)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Imported %d tickers from %s", n, args[0]))
	return nil
}
