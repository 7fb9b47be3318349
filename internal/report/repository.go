package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
	"github.com/Howie-Waves/StockMate/pkg/redis"
)

// ErrNotFound no report stored for the ticker
var ErrNotFound = errors.New("report not found")

// DefaultRecentLimit caps Recent when limit <= 0
const DefaultRecentLimit = 20

// Store persists analysis reports
type Store interface {
	Save(ctx context.Context, r contracts.AnalysisReport) error
	Latest(ctx context.Context, ticker string) (*contracts.AnalysisReport, error)
	Recent(ctx context.Context, limit int) ([]contracts.AnalysisReport, error)
}

func notFound(ticker string) error {
	return fmt.Errorf("%w for %s: %w", ErrNotFound, ticker, contracts.ErrDataUnavailable)
}

// =============================================================================
// Postgres
// =============================================================================

// PostgresRepository stores reports in analysis.reports
// ⭐ SSOT: 분석 리포트 저장/조회는 여기서만
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresRepository creates a new report repository
func NewPostgresRepository(pool *pgxpool.Pool, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: log}
}

// Save inserts one report
func (r *PostgresRepository) Save(ctx context.Context, rep contracts.AnalysisReport) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO analysis.reports (ticker, final_decision, risk_assessment, report, analyzed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		rep.Ticker, string(rep.FinalDecision), string(rep.RiskAssessment), body, rep.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"ticker":   rep.Ticker,
		"decision": rep.FinalDecision,
	}).Debug("Saved analysis report")
	return nil
}

// Latest returns the newest report of ticker
func (r *PostgresRepository) Latest(ctx context.Context, ticker string) (*contracts.AnalysisReport, error) {
	ticker = contracts.NormalizeTicker(ticker)

	query := `
		SELECT report FROM analysis.reports
		WHERE ticker = $1
		ORDER BY analyzed_at DESC, id DESC
		LIMIT 1
	`

	var body []byte
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var rep contracts.AnalysisReport
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}

// Recent returns the newest reports across tickers
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]contracts.AnalysisReport, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := `
		SELECT report FROM analysis.reports
		ORDER BY analyzed_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]contracts.AnalysisReport, 0, limit)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var rep contracts.AnalysisReport
		if err := json.Unmarshal(body, &rep); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// =============================================================================
// Memory
// =============================================================================

// MemoryRepository keeps reports in process (no DATABASE_URL)
type MemoryRepository struct {
	mu      sync.RWMutex
	reports []contracts.AnalysisReport
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save appends a report
func (m *MemoryRepository) Save(_ context.Context, rep contracts.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, rep)
	return nil
}

// Latest returns the newest report of ticker
func (m *MemoryRepository) Latest(_ context.Context, ticker string) (*contracts.AnalysisReport, error) {
	ticker = contracts.NormalizeTicker(ticker)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *contracts.AnalysisReport
	for i := range m.reports {
		rep := m.reports[i]
		if rep.Ticker != ticker {
			continue
		}
		if latest == nil || !rep.AnalysisTimestamp.Before(latest.AnalysisTimestamp) {
			latest = &rep
		}
	}
	if latest == nil {
		return nil, notFound(ticker)
	}
	return latest, nil
}

// Recent returns the newest reports, newest first
func (m *MemoryRepository) Recent(_ context.Context, limit int) ([]contracts.AnalysisReport, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	m.mu.RLock()
	out := make([]contracts.AnalysisReport, len(m.reports))
	copy(out, m.reports)
	m.mu.RUnlock()

	// 같은 시각이면 나중에 저장된 것이 먼저
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnalysisTimestamp.After(out[j].AnalysisTimestamp)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// Redis-cached latest
// =============================================================================

// CachedStore keeps the latest report per ticker in Redis
type CachedStore struct {
	next   Store
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachedStore wraps next; a disabled cache passes through
func NewCachedStore(next Store, cache *redis.Cache, log *logger.Logger) *CachedStore {
	return &CachedStore{next: next, cache: cache, logger: log}
}

// Save writes through and refreshes the cached latest
func (c *CachedStore) Save(ctx context.Context, rep contracts.AnalysisReport) error {
	if err := c.next.Save(ctx, rep); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, redis.ReportKey(rep.Ticker), rep, redis.TTLReport); err != nil {
		c.logger.WithError(err).WithTicker(rep.Ticker).Warn("Report cache write failed")
	}
	return nil
}

// Latest reads Redis first
func (c *CachedStore) Latest(ctx context.Context, ticker string) (*contracts.AnalysisReport, error) {
	ticker = contracts.NormalizeTicker(ticker)

	var rep contracts.AnalysisReport
	found, err := c.cache.Get(ctx, redis.ReportKey(ticker), &rep)
	if err != nil {
		c.logger.WithError(err).WithTicker(ticker).Warn("Report cache read failed")
	}
	if found {
		return &rep, nil
	}
	return c.next.Latest(ctx, ticker)
}

// Recent is not cached
func (c *CachedStore) Recent(ctx context.Context, limit int) ([]contracts.AnalysisReport, error) {
	return c.next.Recent(ctx, limit)
}
