package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/pkg/config"
	"github.com/Howie-Waves/StockMate/pkg/database"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 생성 (market, analysis)",
	Long: `DATABASE_URL 의 PostgreSQL 에 market / analysis 스키마와 테이블을 만듭니다.
여러 번 실행해도 안전합니다 (IF NOT EXISTS).

Example:
  DATABASE_URL=postgres://localhost/stockmate go run ./cmd/stockmate migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	PrintSuccess("Schema is up to date")
	return nil
}
