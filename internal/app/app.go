// Package app assembles the ledger and its infrastructure from Config.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"lotledger/internal/config"
	"lotledger/internal/core/idempotency"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/catalog"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/http/v1/handlers"
	"lotledger/internal/infrastructure/lock"
	"lotledger/internal/infrastructure/metrics"
	"lotledger/internal/infrastructure/storage/memory"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/internal/infrastructure/storage/postgres/catalog_repo"
	"lotledger/internal/infrastructure/storage/postgres/fifo_repo"
	"lotledger/pkg/logger"
)

// App is a wired ledger with the storage and locking it runs on.
type App struct {
	Ledger   *fifo.Ledger
	History  audit.Reader
	Locker   lock.Locker
	Metrics  *metrics.Metrics
	Products catalog.Repository

	// Idempotency is nil when disabled by configuration.
	Idempotency idempotency.Store

	// Pool and TxManager are nil with memory storage.
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	HealthChecks map[string]handlers.Pinger

	closers []func()
}

// New connects to storage and redis as configured and builds the ledger.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		Metrics:      metrics.New(),
		HealthChecks: make(map[string]handlers.Pinger),
	}

	deps := fifo.Deps{
		Metrics:  a.Metrics,
		Location: cfg.Location,
	}

	switch cfg.Storage {
	case config.StorageMemory:
		a.buildMemory(cfg, &deps)
	default:
		if err := a.buildPostgres(ctx, cfg, &deps); err != nil {
			a.Close()
			return nil, err
		}
	}

	if err := a.buildLocker(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	deps.Guard = lock.ProductGuard(a.Locker)
	a.Products = deps.Products
	a.Ledger = fifo.New(deps)
	return a, nil
}

func (a *App) buildMemory(cfg config.Config, deps *fifo.Deps) {
	auditLog := &memory.AuditLog{}

	deps.Lots = memory.NewLotStore()
	deps.Consumptions = memory.NewConsumptionStore()
	deps.Products = memory.NewProductStore()
	deps.Shifts = memory.NewSalesStore()
	deps.TxManager = memory.TxManager{}
	deps.Audit = audit.NewRecorder(auditLog)

	a.History = auditLog
	if cfg.IdempotencyEnabled {
		a.Idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}
}

func (a *App) buildPostgres(ctx context.Context, cfg config.Config, deps *fifo.Deps) error {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)

	txm := postgres.NewTxManager(pool)
	a.TxManager = txm
	a.HealthChecks["database"] = txm

	sink, err := postgres.NewAuditSink(txm)
	if err != nil {
		return err
	}

	deps.Lots = fifo_repo.NewLotRepo(txm)
	deps.Consumptions = fifo_repo.NewConsumptionRepo(txm)
	deps.Products = catalog_repo.NewProductRepo(txm)
	deps.Shifts = catalog_repo.NewSalesRepo(txm)
	deps.TxManager = txm
	deps.Audit = audit.NewRecorder(sink)

	a.History = sink
	if cfg.IdempotencyEnabled {
		a.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	}

	a.Metrics.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lotledger",
			Subsystem: "db",
			Name:      "pool_acquired_connections",
			Help:      "Connections currently checked out of the pool.",
		}, func() float64 { return float64(pool.Stats().Acquired) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lotledger",
			Subsystem: "db",
			Name:      "pool_total_connections",
			Help:      "Open connections in the pool.",
		}, func() float64 { return float64(pool.Stats().Total) }),
	)
	return nil
}

func (a *App) buildLocker(ctx context.Context, cfg config.Config) error {
	if cfg.RedisAddr == "" {
		logger.Info(ctx, "using in-process product locks")
		a.Locker = lock.NewLocalLocker(cfg.LockWait, a.Metrics)
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	a.HealthChecks["redis"] = redisPinger{rdb}
	a.Locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait, a.Metrics)
	logger.Info(ctx, "using redis product locks", "addr", cfg.RedisAddr)
	return nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
