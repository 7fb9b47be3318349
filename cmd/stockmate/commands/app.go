package commands

import (
	"context"
	"fmt"

	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/cache"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/explain"
	"github.com/Howie-Waves/StockMate/internal/marketdata"
	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/strategyconfig"
	"github.com/Howie-Waves/StockMate/internal/technical"
	"github.com/Howie-Waves/StockMate/pkg/config"
	"github.com/Howie-Waves/StockMate/pkg/database"
	"github.com/Howie-Waves/StockMate/pkg/logger"
	"github.com/Howie-Waves/StockMate/pkg/redis"
)

// redisPrefix 모든 Redis 키의 접두사
const redisPrefix = "stockmate"

// app holds the wired pipeline shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	profile *strategyconfig.Config

	db    *database.DB // nil = 메모리 모드
	redis *redis.Client

	source   marketdata.Source
	writer   marketdata.Writer
	provider *marketdata.CachedProvider
	store    report.Store

	runner *backtest.Runner
	agent  *technical.Agent
	gate   *risk.Gate
	engine *decision.Engine
}

// newApp loads configuration and wires every component
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load analysis profile
	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range strategyconfig.Warn(profile) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{cfg: cfg, log: log, profile: profile}

	// 4. Storage: PostgreSQL when configured, memory otherwise
	var store report.Store
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		repo := marketdata.NewPostgresRepository(db.Pool, log)
		a.source, a.writer = repo, repo
		store = report.NewPostgresRepository(db.Pool, log)
	} else {
		mem := marketdata.NewMemoryProvider()
		a.source, a.writer = mem, mem
		store = report.NewMemoryRepository()
		log.Warn("DATABASE_URL not set, using in-memory market data")
	}

	if fixturePath != "" {
		fx, err := marketdata.ReadFixture(fixturePath)
		if err != nil {
			a.close()
			return nil, err
		}
		n, err := marketdata.Import(ctx, a.writer, fx)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("import fixture: %w", err)
		}
		log.WithFields(map[string]interface{}{"path": fixturePath, "tickers": n}).Info("Fixture loaded")
	}

	// 5. Redis (optional)
	rc, err := redis.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without remote cache")
		rc = redis.Disabled()
	}
	a.redis = rc
	remote := redis.NewCache(rc, redisPrefix)

	// 6. Caches
	quotes := cache.NewQuoteCache(cfg.Analysis.QuoteCacheTTL, log)
	names := cache.NewNameCache(a.source, log)
	a.provider = marketdata.NewCachedProvider(a.source, quotes, names, remote, log)
	a.store = report.NewCachedStore(store, remote, log)

	// 7. Pipeline
	a.runner = backtest.NewRunner(profile.BacktestConfig(), log)
	a.agent = technical.NewAgent(a.runner, a.provider, log)
	a.gate = risk.NewGate(profile.Thresholds(), log)
	enricher := explain.NewEnricher(explain.TemplateExplainer{}, explain.DefaultTimeout, log)
	a.engine = decision.NewEngine(
		a.provider,
		a.provider,
		a.agent,
		a.gate,
		enricher,
		profile.EngineOptions(cfg.Analysis.ProviderTimeout, cfg.Analysis.ProviderRate),
		log,
	)

	return a, nil
}

// loadProfile reads --profile, then ANALYSIS_PROFILE, then the built-in default
func loadProfile(cfg *config.Config) (*strategyconfig.Config, error) {
	path := profilePath
	if path == "" {
		path = cfg.Analysis.ProfilePath
	}
	profile, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// close releases the database and Redis connections
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close Redis")
		}
	}
}

// displayName returns "name (ticker)" or just the ticker
func (a *app) displayName(ctx context.Context, ticker string) string {
	name, err := a.provider.LookupName(ctx, ticker)
	if err != nil || name == "" {
		return ticker
	}
	return fmt.Sprintf("%s (%s)", name, ticker)
}
