package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// PostgresRepository serves bars, news and names from the market schema
// ⭐ SSOT: 시세/뉴스 저장소는 여기서만
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresRepository creates a new repository
func NewPostgresRepository(pool *pgxpool.Pool, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: log}
}

// FetchHistory returns the bars of the last lookbackDays calendar days, ascending
func (r *PostgresRepository) FetchHistory(ctx context.Context, ticker string, lookbackDays int) (contracts.PriceSeries, error) {
	ticker = contracts.NormalizeTicker(ticker)
	from := time.Now().AddDate(0, 0, -lookbackDays)

	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_prices
		WHERE ticker = $1 AND trade_date >= $2
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", ticker, err)
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		series = append(series, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   len(series),
	}).Debug("Loaded price history")

	if len(series) == 0 {
		return nil, fmt.Errorf("no prices for %s: %w", ticker, contracts.ErrDataUnavailable)
	}
	return series, nil
}

// FetchSnapshot builds the snapshot from the stored history
func (r *PostgresRepository) FetchSnapshot(ctx context.Context, ticker string, lookbackDays int) (*contracts.MarketSnapshot, error) {
	series, err := r.FetchHistory(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(ticker, series)
}

// FetchNews returns the newest limit headlines
func (r *PostgresRepository) FetchNews(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	ticker = contracts.NormalizeTicker(ticker)

	query := `
		SELECT title, content, published_at, source, url
		FROM market.news
		WHERE ticker = $1
		ORDER BY published_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query news %s: %w", ticker, err)
	}
	defer rows.Close()

	var items []contracts.NewsItem
	for rows.Next() {
		var n contracts.NewsItem
		if err := rows.Scan(&n.Title, &n.Content, &n.PublishTime, &n.Source, &n.URL); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		items = append(items, CleanNews(n))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no news for %s: %w", ticker, contracts.ErrDataUnavailable)
	}
	return items, nil
}

// LookupName returns the display name of ticker
func (r *PostgresRepository) LookupName(ctx context.Context, ticker string) (string, error) {
	ticker = contracts.NormalizeTicker(ticker)

	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM market.stocks WHERE ticker = $1`, ticker).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("unknown ticker %s: %w", ticker, contracts.ErrDataUnavailable)
	}
	if err != nil {
		return "", fmt.Errorf("query name %s: %w", ticker, err)
	}
	return name, nil
}

// SaveBars upserts daily bars in one batch
func (r *PostgresRepository) SaveBars(ctx context.Context, ticker string, bars contracts.PriceSeries) error {
	if len(bars) == 0 {
		return nil
	}
	ticker = contracts.NormalizeTicker(ticker)

	query := `
		INSERT INTO market.daily_prices (ticker, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save bars %s: %w", ticker, err)
	}
	return nil
}

// SaveNews appends news rows
func (r *PostgresRepository) SaveNews(ctx context.Context, ticker string, items []contracts.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	ticker = contracts.NormalizeTicker(ticker)

	query := `
		INSERT INTO market.news (ticker, title, content, source, url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, n := range items {
		batch.Queue(query, ticker, n.Title, n.Content, n.Source, n.URL, n.PublishTime)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save news %s: %w", ticker, err)
	}
	return nil
}

// SaveName upserts the display name of ticker
func (r *PostgresRepository) SaveName(ctx context.Context, ticker, name string) error {
	query := `
		INSERT INTO market.stocks (ticker, name, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (ticker) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, contracts.NormalizeTicker(ticker), name)
	return err
}
