package commands

import (
	"context"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/brain"
	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/data/repos"
	"github.com/wz-hub/a-stock-scanner/internal/external/eastmoney"
	"github.com/wz-hub/a-stock-scanner/internal/metrics"
	"github.com/wz-hub/a-stock-scanner/internal/notify"
	"github.com/wz-hub/a-stock-scanner/internal/s0_data/collector"
	"github.com/wz-hub/a-stock-scanner/internal/s1_universe"
	"github.com/wz-hub/a-stock-scanner/internal/s2_signals"
	"github.com/wz-hub/a-stock-scanner/internal/strategyconfig"
	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
	"github.com/wz-hub/a-stock-scanner/pkg/redis"
)

// app holds every wired component a command may need
// ⭐ SSOT: the dependency graph is assembled only here
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	rdb *redis.Client

	instruments   *repos.InstrumentRepository
	prices        *repos.PriceRepository
	signals       *repos.SignalRepository
	runs          *repos.RunRepository
	notifications *repos.NotificationRepository

	provider   *eastmoney.Client
	strategies *s2_signals.Registry
	registry   *s1_universe.Registry
	sync       *collector.Synchronizer
	scanner    *s2_signals.Scanner
	metrics    *metrics.Metrics   // nil when METRICS_ENABLED=false
	dispatcher *notify.Dispatcher // nil when PUSH_ENABLED=false
	pipeline   *brain.Orchestrator
}

// loadConfig reads and validates the environment; errors are ConfigurationErrors
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadStrategies resolves enabled strategies, tuned by STRATEGY_CONFIG when set
func loadStrategies(cfg *config.Config, log *logger.Logger) (*s2_signals.Registry, error) {
	params := strategyconfig.Default()
	if cfg.Scan.StrategyConfig != "" {
		loaded, err := strategyconfig.Load(cfg.Scan.StrategyConfig)
		if err != nil {
			return nil, &contracts.ConfigurationError{Field: "STRATEGY_CONFIG", Reason: err.Error()}
		}
		params = *loaded
	}

	for _, w := range strategyconfig.Warn(&params) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return s2_signals.NewRegistryWithParams(params, cfg.Scan.EnabledStrategies)
}

// openStore connects to the result store and creates the schema
func openStore(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, &storeInitError{err: err}
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.Migrate(migrateCtx); err != nil {
		db.Close()
		return nil, &storeInitError{err: err}
	}
	return db, nil
}

// newApp wires the full dependency graph
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	strategies, err := loadStrategies(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:           cfg,
		log:           log,
		db:            db,
		instruments:   repos.NewInstrumentRepository(db),
		prices:        repos.NewPriceRepository(db),
		signals:       repos.NewSignalRepository(db),
		runs:          repos.NewRunRepository(db),
		notifications: repos.NewNotificationRepository(db),
		strategies:    strategies,
	}

	a.rdb, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		// the shared limiter is optional; local pacing still applies
		log.WithError(err).Warn("Redis unavailable, continuing without shared rate limit")
		a.rdb = nil
	}

	// the synchronizer owns the retry loop, so the provider client must not retry
	providerHTTP := httputil.NewWithTimeout(log, cfg.Provider.Timeout).DisableRetry()
	if a.rdb.Enabled() {
		providerHTTP.WithRateLimiter(
			redis.NewRateLimiter(a.rdb, "scanner"),
			redis.ProviderRateLimit(cfg.Provider.RateLimit),
		)
	}
	a.provider = eastmoney.NewClient(providerHTTP, cfg.Provider, log)

	a.registry = s1_universe.NewRegistry(a.provider, a.instruments, cfg.Scan.RegistryRefreshInterval, log)
	a.scanner = s2_signals.NewScanner(strategies, a.instruments, a.prices, a.signals, s2_signals.ScannerConfigFrom(cfg.Scan), log)
	syncCfg := collector.ConfigFrom(cfg)
	syncCfg.WindowBars = a.scanner.WindowSize()
	a.sync = collector.NewSynchronizer(a.provider, a.prices, syncCfg, log)

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	if cfg.Push.Enabled {
		n, err := notify.New(cfg.Push, httputil.NewWithTimeout(log, 15*time.Second), log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.dispatcher = notify.NewDispatcher(n, a.notifications, a.instruments, cfg.Push.TopN, log)
	}

	a.pipeline = brain.NewOrchestrator(a.registry, a.sync, a.scanner, a.runs, a.metrics, a.dispatcher, brain.ConfigFrom(cfg), log)

	log.WithFields(map[string]interface{}{
		"driver":     cfg.Database.Driver,
		"strategies": strategies.Names(),
		"push":       cfg.Push.Enabled,
	}).Debug("Application wired")

	return a, nil
}

// Close releases the store and redis connections
func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
