// Package main applies the ledger schema, loads catalog products and creates
// opening lots for legacy stock.
//
//	seed                          apply schema, run the opening-lot migration
//	seed -products products.json  also upsert products before migrating
//	seed -sales sales.json        also register sales against their shifts
//	seed -hash-password secret    print a bcrypt hash for ADMIN_PASSWORD_HASH
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"lotledger/internal/app"
	"lotledger/internal/config"
	"lotledger/internal/domain/auth"
	"lotledger/internal/domain/catalog"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/internal/infrastructure/storage/postgres/catalog_repo"
	"lotledger/pkg/logger"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash of the password and exit")
	productsFile := flag.String("products", "", "JSON file with catalog products to upsert")
	salesFile := flag.String("sales", "", "JSON file of {shiftId, saleId} pairs to register")
	skipMigration := flag.Bool("skip-migration", false, "do not create opening lots")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if cfg.Storage != config.StoragePostgres {
		log.Fatalw("seed requires postgres storage", "storage", cfg.Storage)
	}
	// Seeding never needs idempotency keys or redis locks.
	cfg.IdempotencyEnabled = false
	cfg.RedisAddr = ""

	ctx := logger.WithLogger(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer a.Close()

	if err := postgres.EnsureSchema(ctx, a.TxManager); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	if *productsFile != "" {
		n, err := seedProducts(ctx, catalog_repo.NewProductRepo(a.TxManager), *productsFile)
		if err != nil {
			log.Fatalw("failed to seed products", "error", err)
		}
		log.Infow("products upserted", "count", n)
	}

	if *salesFile != "" {
		n, err := seedSales(ctx, catalog_repo.NewSalesRepo(a.TxManager), *salesFile)
		if err != nil {
			log.Fatalw("failed to seed sales", "error", err)
		}
		log.Infow("sales registered", "count", n)
	}

	if !*skipMigration {
		result, err := a.Ledger.Migrator.CreateInitialLotsForExistingProducts(ctx)
		if err != nil {
			log.Fatalw("opening lot migration failed", "error", err)
		}
		log.Infow("opening lots migrated", "created", result.Created, "skipped", result.Skipped)
	}

	log.Info("seeding completed successfully")
}

func seedProducts(ctx context.Context, repo *catalog_repo.ProductRepo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read products: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return 0, fmt.Errorf("decode products: %w", err)
	}

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}

type shiftSale struct {
	ShiftID string `json:"shiftId"`
	SaleID  string `json:"saleId"`
}

func seedSales(ctx context.Context, repo *catalog_repo.SalesRepo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sales: %w", err)
	}

	var sales []shiftSale
	if err := json.Unmarshal(data, &sales); err != nil {
		return 0, fmt.Errorf("decode sales: %w", err)
	}

	for _, s := range sales {
		if err := repo.AddSale(ctx, s.ShiftID, s.SaleID); err != nil {
			return 0, fmt.Errorf("add sale %s: %w", s.SaleID, err)
		}
	}
	return len(sales), nil
}
