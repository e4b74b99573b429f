// Package main is the entry point for the ledger background worker.
// It expires overdue lots and prunes idempotency keys on a schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lotledger/internal/app"
	"lotledger/internal/config"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Infow("starting lotledger worker", "sweep_interval", cfg.ExpirySweepInterval)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize ledger", "error", err)
	}
	defer a.Close()

	worker := NewWorker(a, cfg.ExpirySweepInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// expiredKeyCleaner is implemented by idempotency stores that persist keys.
type expiredKeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs the periodic ledger jobs.
type Worker struct {
	expiration *fifo.ExpirationTracker
	cleaner    expiredKeyCleaner
	pool       *postgres.Pool
	interval   time.Duration
	log        *logger.Logger
}

func NewWorker(a *app.App, interval time.Duration, log *logger.Logger) *Worker {
	w := &Worker{
		expiration: a.Ledger.Expiration,
		pool:       a.Pool,
		interval:   interval,
		log:        log.WithComponent("worker"),
	}
	if c, ok := a.Idempotency.(expiredKeyCleaner); ok {
		w.cleaner = c
	}
	return w
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	w.sweepExpired(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepExpired(ctx)
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
			if w.pool != nil {
				w.pool.LogStats(ctx)
			}
		}
	}
}

func (w *Worker) sweepExpired(ctx context.Context) {
	n, err := w.expiration.ExpireOverdueLots(ctx)
	if err != nil {
		w.log.Errorw("expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("expired overdue lots", "count", n)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	if w.cleaner == nil {
		return
	}
	n, err := w.cleaner.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
