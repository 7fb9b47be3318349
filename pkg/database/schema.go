package database

import (
	"context"
	"fmt"
)

// schema is the StockMate storage layout
// market.* 은 외부 수집기가 채우고, analysis.* 는 StockMate 가 기록
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS market`,
	`CREATE SCHEMA IF NOT EXISTS analysis`,
	`CREATE TABLE IF NOT EXISTS market.stocks (
		ticker      VARCHAR(6) PRIMARY KEY,
		name        TEXT NOT NULL,
		exchange    VARCHAR(4),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS market.daily_prices (
		ticker      VARCHAR(6) NOT NULL,
		trade_date  DATE NOT NULL,
		open_price  DOUBLE PRECISION NOT NULL,
		high_price  DOUBLE PRECISION NOT NULL,
		low_price   DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ticker, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS market.news (
		id           BIGSERIAL PRIMARY KEY,
		ticker       VARCHAR(6) NOT NULL,
		title        TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		source       TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_ticker_published ON market.news (ticker, published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analysis.reports (
		id              BIGSERIAL PRIMARY KEY,
		ticker          VARCHAR(6) NOT NULL,
		final_decision  VARCHAR(8) NOT NULL,
		risk_assessment VARCHAR(8) NOT NULL,
		report          JSONB NOT NULL,
		analyzed_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_ticker_analyzed ON analysis.reports (ticker, analyzed_at DESC)`,
}

// Migrate creates the schema if missing
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
