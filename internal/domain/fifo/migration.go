package fifo

import (
	"context"
	"fmt"

	"lotledger/internal/core/types"
	"lotledger/pkg/logger"
)

// Migrator moves legacy on-hand stock into lots.
type Migrator struct {
	*base
	manager *LotManager
}

// MigrationResult counts what CreateInitialLotsForExistingProducts did.
type MigrationResult struct {
	Created int
	Skipped int
}

// CreateInitialLotsForExistingProducts creates one INITIAL lot for every product
// that has positive legacy stock and no lots. Running it again creates nothing.
func (m *Migrator) CreateInitialLotsForExistingProducts(ctx context.Context) (*MigrationResult, error) {
	if m.products == nil {
		return &MigrationResult{}, nil
	}

	products, err := m.products.ListStocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocked products: %w", err)
	}

	result := &MigrationResult{}
	for i := range products {
		p := products[i]
		if !p.StockQuantity.IsPositive() {
			result.Skipped++
			continue
		}

		count, err := m.lots.CountByProduct(ctx, p.ID)
		if err != nil {
			return result, fmt.Errorf("count lots of %s: %w", p.ID, err)
		}
		if count > 0 {
			result.Skipped++
			continue
		}

		purchaseDate := m.today()
		if p.StockUpdatedAt != nil && !p.StockUpdatedAt.IsZero() {
			purchaseDate = types.DateOf(p.StockUpdatedAt.In(m.loc))
		}
		lotNumber := InitialLotNumber

		_, err = m.manager.AddLot(ctx, p.ID, p.StockQuantity, m.costExTax(p), p.TaxRate, AddLotOptions{
			LotNumber:    &lotNumber,
			PurchaseDate: &purchaseDate,
		})
		if err != nil {
			return result, fmt.Errorf("create initial lot for %s: %w", p.ID, err)
		}
		result.Created++
	}

	logger.Info(ctx, "initial lot migration finished",
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}
