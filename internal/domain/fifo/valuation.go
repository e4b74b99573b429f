package fifo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Reporter aggregates lots and consumption records into financial figures.
type Reporter struct {
	*base
}

// ProductValuation is the value of a product's active lots.
type ProductValuation struct {
	ProductID     id.ID
	TotalQuantity types.Quantity
	TotalValue    types.Money
	AvgCost       types.Money
	Lots          []Lot
}

// InventoryValuation is the value of all active lots.
type InventoryValuation struct {
	TotalQuantity types.Quantity
	TotalValue    types.Money
	AvgCost       types.Money
	ProductCount  int
	LotCount      int
}

// ProductCOGS is the consumed quantity and cost of one product.
type ProductCOGS struct {
	ProductID id.ID
	Quantity  types.Quantity
	Cost      types.Money
}

// PeriodCOGS is the cost of goods sold between two dates, inclusive.
type PeriodCOGS struct {
	From      types.Date
	To        types.Date
	TotalCost types.Money
	Quantity  types.Quantity
	Products  []ProductCOGS
}

// ShiftCOGS is the cost of goods sold by one register shift.
type ShiftCOGS struct {
	ShiftID   string
	SaleCount int
	TotalCost types.Money
}

// GetProductInventoryValuation values the product's active lots.
func (r *Reporter) GetProductInventoryValuation(ctx context.Context, productID id.ID) (*ProductValuation, error) {
	var lots []Lot
	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		lots, err = r.activeLots(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	qty, value := sumLots(lots)
	return &ProductValuation{
		ProductID:     productID,
		TotalQuantity: qty,
		TotalValue:    value,
		AvgCost:       types.UnitCost(value, qty),
		Lots:          lots,
	}, nil
}

// GetTotalInventoryValuation values every active lot of every product.
func (r *Reporter) GetTotalInventoryValuation(ctx context.Context) (*InventoryValuation, error) {
	var lots []Lot
	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		status := LotStatusActive
		var err error
		lots, err = r.lots.List(ctx, LotFilter{Status: &status, PositiveOnly: true})
		if err != nil {
			return fmt.Errorf("list active lots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	products := make(map[id.ID]struct{})
	for i := range lots {
		products[lots[i].ProductID] = struct{}{}
	}

	qty, value := sumLots(lots)
	return &InventoryValuation{
		TotalQuantity: qty,
		TotalValue:    value,
		AvgCost:       types.UnitCost(value, qty),
		ProductCount:  len(products),
		LotCount:      len(lots),
	}, nil
}

// GetCOGSForPeriod sums consumption cost dated within [from, to], overall and per product.
func (r *Reporter) GetCOGSForPeriod(ctx context.Context, from, to types.Date) (*PeriodCOGS, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperror.NewValidation("period start and end dates are required")
	}
	if to.Before(from) {
		return nil, apperror.NewValidation("period end is before start").
			WithDetail("from", from.String()).
			WithDetail("to", to.String())
	}

	var records []Consumption
	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, err = r.consumptions.List(ctx, ConsumptionFilter{FromDate: &from, ToDate: &to})
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &PeriodCOGS{From: from, To: to, TotalCost: types.Zero()}
	byProduct := make(map[id.ID]*ProductCOGS)
	for i := range records {
		c := &records[i]
		out.TotalCost = out.TotalCost.Add(c.TotalCost)
		out.Quantity += c.Quantity

		p, ok := byProduct[c.ProductID]
		if !ok {
			p = &ProductCOGS{ProductID: c.ProductID, Cost: types.Zero()}
			byProduct[c.ProductID] = p
		}
		p.Quantity += c.Quantity
		p.Cost = p.Cost.Add(c.TotalCost)
	}

	out.Products = make([]ProductCOGS, 0, len(byProduct))
	for _, p := range byProduct {
		out.Products = append(out.Products, *p)
	}
	slices.SortFunc(out.Products, func(a, b ProductCOGS) int {
		return strings.Compare(a.ProductID.String(), b.ProductID.String())
	})

	return out, nil
}

// GetCOGSForShift sums consumption cost of every sale of the shift.
func (r *Reporter) GetCOGSForShift(ctx context.Context, shiftID string) (*ShiftCOGS, error) {
	if shiftID == "" {
		return nil, apperror.NewValidation("shift id is required")
	}
	out := &ShiftCOGS{ShiftID: shiftID, TotalCost: types.Zero()}
	if r.shifts == nil {
		return out, nil
	}

	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		saleIDs, err := r.shifts.SaleIDsForShift(ctx, shiftID)
		if err != nil {
			return fmt.Errorf("resolve shift sales: %w", err)
		}
		out.SaleCount = len(saleIDs)
		if len(saleIDs) == 0 {
			return nil
		}

		records, err := r.consumptions.List(ctx, ConsumptionFilter{SaleIDs: saleIDs})
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		for i := range records {
			out.TotalCost = out.TotalCost.Add(records[i].TotalCost)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetConsumptions lists the records of one reference, oldest first.
func (r *Reporter) GetConsumptions(ctx context.Context, ref Reference) ([]Consumption, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var records []Consumption
	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, err = r.consumptions.List(ctx, ConsumptionFilter{Reference: &ref})
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		return nil
	})
	return records, err
}
