package fifo

import (
	"context"
	"fmt"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/pkg/logger"
)

// LotManager creates lots and answers cost and availability questions.
type LotManager struct {
	*base
}

// AddLotOptions carries optional provenance of a received lot.
type AddLotOptions struct {
	InvoiceID      *string
	ReceiptID      *string
	LotNumber      *string
	ExpirationDate *types.Date
	// PurchaseDate defaults to today.
	PurchaseDate *types.Date
}

// AddLot records a new active lot with remaining == original == quantity.
func (m *LotManager) AddLot(
	ctx context.Context,
	productID id.ID,
	quantity types.Quantity,
	unitCostExTax types.Money,
	taxRate types.Rate,
	opts AddLotOptions,
) (*Lot, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product id is required")
	}
	if !quantity.IsPositive() {
		return nil, apperror.NewValidation("lot quantity must be positive").
			WithDetail("quantity", quantity.String())
	}
	if unitCostExTax.IsNegative() {
		return nil, apperror.NewValidation("unit cost must not be negative")
	}
	if taxRate.IsNegative() {
		return nil, apperror.NewValidation("tax rate must not be negative")
	}

	purchaseDate := m.today()
	if opts.PurchaseDate != nil && !opts.PurchaseDate.IsZero() {
		purchaseDate = *opts.PurchaseDate
	}

	now := m.now().UTC()
	lot := &Lot{
		ID:                id.New(),
		ProductID:         productID,
		InvoiceID:         opts.InvoiceID,
		ReceiptID:         opts.ReceiptID,
		LotNumber:         opts.LotNumber,
		PurchaseDate:      purchaseDate,
		ExpirationDate:    opts.ExpirationDate,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		UnitCost:          unitCostExTax,
		UnitCostIncTax:    types.AddTax(unitCostExTax, taxRate),
		TaxRate:           taxRate,
		Status:            LotStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := m.lots.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("create lot: %w", err)
	}

	m.metrics.LotCreated()
	m.audit.Record(ctx, audit.Event{
		Action:     audit.ActionLotCreated,
		EntityType: audit.EntityLot,
		EntityID:   lot.ID.String(),
		Details: map[string]any{
			"product_id":    productID.String(),
			"quantity":      quantity.String(),
			"unit_cost":     unitCostExTax.String(),
			"purchase_date": purchaseDate.String(),
		},
	})

	logger.Info(ctx, "lot created",
		"lot_id", lot.ID,
		"product_id", productID,
		"quantity", quantity,
		"unit_cost", unitCostExTax,
	)

	return lot, nil
}

// GetActiveLots returns drawable lots oldest first. This order is the FIFO contract.
func (m *LotManager) GetActiveLots(ctx context.Context, productID id.ID) ([]Lot, error) {
	return m.activeLots(ctx, productID)
}

// GetFIFOCost returns the unit cost of the oldest active lot, falling back
// to the product's configured cost, then to zero.
func (m *LotManager) GetFIFOCost(ctx context.Context, productID id.ID) (types.Money, error) {
	lots, err := m.activeLots(ctx, productID)
	if err != nil {
		return types.Zero(), err
	}
	if len(lots) > 0 {
		return lots[0].UnitCost, nil
	}

	cost, _, err := m.productCost(ctx, productID)
	return cost, err
}

// GetWeightedAverageCost returns sum(remaining*cost)/sum(remaining) over active lots,
// with the same fallback as GetFIFOCost.
func (m *LotManager) GetWeightedAverageCost(ctx context.Context, productID id.ID) (types.Money, error) {
	lots, err := m.activeLots(ctx, productID)
	if err != nil {
		return types.Zero(), err
	}
	if len(lots) == 0 {
		cost, _, err := m.productCost(ctx, productID)
		return cost, err
	}

	qty, value := sumLots(lots)
	return types.UnitCost(value, qty), nil
}

// GetAvailableQuantity sums active lots, or reports the product's legacy stock
// when it has never been moved to lots.
func (m *LotManager) GetAvailableQuantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	lots, err := m.activeLots(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(lots) > 0 {
		qty, _ := sumLots(lots)
		return qty, nil
	}

	p, err := m.product(ctx, productID)
	if err != nil || p == nil {
		return 0, err
	}
	return p.StockQuantity, nil
}

func sumLots(lots []Lot) (types.Quantity, types.Money) {
	var qty types.Quantity
	value := types.Zero()
	for i := range lots {
		qty += lots[i].RemainingQuantity
		value = value.Add(lots[i].Value())
	}
	return qty, value
}
