package fifo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/pkg/logger"
)

// ConsumptionEngine draws stock from lots oldest first.
type ConsumptionEngine struct {
	*base
}

// ConsumeOptions tunes shortfall handling.
type ConsumeOptions struct {
	// Strict fails with INSUFFICIENT_LOTS instead of costing the shortfall
	// at the product's average cost. Draws already made stay committed.
	Strict bool
}

// ConsumeResult summarizes one Consume call.
type ConsumeResult struct {
	TotalCost    types.Money
	Consumptions []Consumption
	AvgUnitCost  types.Money

	// UsedFallback is set when part of the quantity had no lot to draw from.
	UsedFallback     bool
	FallbackQuantity types.Quantity
}

func (r *ConsumeResult) add(c Consumption) {
	r.Consumptions = append(r.Consumptions, c)
	r.TotalCost = r.TotalCost.Add(c.TotalCost)
}

// Consume withdraws quantity of the product on behalf of ref.
//
// Each lot draw (consumption row plus lot balance) is committed on its own.
// If a later step fails the earlier draws stand; callers reverse by reference.
func (e *ConsumptionEngine) Consume(
	ctx context.Context,
	productID id.ID,
	quantity types.Quantity,
	ref Reference,
	opts ConsumeOptions,
) (*ConsumeResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if quantity.IsNegative() {
		return nil, apperror.NewValidation("consume quantity must not be negative").
			WithDetail("quantity", quantity.String())
	}

	result := &ConsumeResult{TotalCost: types.Zero(), AvgUnitCost: types.Zero()}
	if quantity.IsZero() {
		return result, nil
	}

	ctx, span := tracer.Start(ctx, "fifo.Consume",
		trace.WithAttributes(
			attribute.String("fifo.product_id", productID.String()),
			attribute.String("fifo.reference", ref.String()),
			attribute.String("fifo.quantity", quantity.String()),
		))
	defer span.End()

	lots, err := e.activeLots(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list lots")
		return nil, err
	}

	today := e.today()
	remaining := quantity
	for i := range lots {
		if remaining.IsZero() {
			break
		}
		draw := types.MinQuantity(remaining, lots[i].RemainingQuantity)
		if !draw.IsPositive() {
			continue
		}

		c, err := e.drawFromLot(ctx, &lots[i], draw, ref, today)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "draw from lot")
			return nil, err
		}
		result.add(*c)
		remaining -= draw
	}

	if remaining.IsPositive() {
		available := quantity - remaining
		if opts.Strict {
			logger.Warn(ctx, "insufficient lots for strict consumption",
				"product_id", productID,
				"reference", ref.String(),
				"requested", quantity,
				"available", available,
			)
			err := apperror.NewInsufficientLots(productID.String(), quantity.String(), available.String())
			span.SetStatus(codes.Error, err.Code)
			return nil, err
		}

		c, err := e.drawLegacy(ctx, productID, remaining, ref, today)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "legacy fallback")
			return nil, err
		}
		result.add(*c)
		result.UsedFallback = true
		result.FallbackQuantity = remaining
	}

	result.AvgUnitCost = types.UnitCost(result.TotalCost, quantity)
	span.SetAttributes(attribute.Bool("fifo.used_fallback", result.UsedFallback))

	logger.Info(ctx, "consumed inventory",
		"product_id", productID,
		"reference", ref.String(),
		"quantity", quantity,
		"records", len(result.Consumptions),
		"total_cost", result.TotalCost,
	)

	return result, nil
}

// drawFromLot writes one consumption record and decrements the lot in one unit.
func (e *ConsumptionEngine) drawFromLot(
	ctx context.Context,
	lot *Lot,
	qty types.Quantity,
	ref Reference,
	today types.Date,
) (*Consumption, error) {
	lotID := lot.ID
	c := &Consumption{
		ID:        id.New(),
		Reference: ref,
		LotID:     &lotID,
		ProductID: lot.ProductID,
		Quantity:  qty,
		UnitCost:  lot.UnitCost,
		TotalCost: types.Cost(qty, lot.UnitCost),
		Date:      today,
		CreatedAt: e.now().UTC(),
	}

	newRemaining := lot.RemainingQuantity - qty
	status := LotStatusActive
	if newRemaining.IsZero() {
		status = LotStatusDepleted
	}

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.consumptions.Create(ctx, c); err != nil {
			return fmt.Errorf("create consumption: %w", err)
		}
		if err := e.lots.UpdateBalance(ctx, lot.ID, newRemaining, status); err != nil {
			return fmt.Errorf("update lot %s balance: %w", lot.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lot.RemainingQuantity = newRemaining
	lot.Status = status

	e.metrics.ConsumptionRecorded("lot", qty)
	e.audit.Record(ctx, audit.Event{
		Action:     audit.ActionConsumption,
		EntityType: audit.EntityLot,
		EntityID:   lot.ID.String(),
		Details: map[string]any{
			"consumption_id": c.ID.String(),
			"reference":      ref.String(),
			"product_id":     lot.ProductID.String(),
			"quantity":       qty.String(),
			"unit_cost":      lot.UnitCost.String(),
			"remaining":      newRemaining.String(),
			"status":         string(status),
		},
	})

	return c, nil
}

// drawLegacy costs a shortfall at the product's configured cost with no lot behind it.
func (e *ConsumptionEngine) drawLegacy(
	ctx context.Context,
	productID id.ID,
	qty types.Quantity,
	ref Reference,
	today types.Date,
) (*Consumption, error) {
	unitCost, found, err := e.productCost(ctx, productID)
	if err != nil {
		return nil, err
	}

	c := &Consumption{
		ID:        id.New(),
		Reference: ref,
		ProductID: productID,
		Quantity:  qty,
		UnitCost:  unitCost,
		TotalCost: types.Cost(qty, unitCost),
		Date:      today,
		CreatedAt: e.now().UTC(),
	}
	if err := e.consumptions.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create legacy consumption: %w", err)
	}

	logger.Warn(ctx, "lots exhausted, costing shortfall at average cost",
		"product_id", productID,
		"reference", ref.String(),
		"shortfall", qty,
		"unit_cost", unitCost,
		"product_found", found,
	)

	e.metrics.ConsumptionRecorded("legacy", qty)
	e.audit.Record(ctx, audit.Event{
		Action:     audit.ActionLegacyFallback,
		EntityType: audit.EntityProduct,
		EntityID:   productID.String(),
		Details: map[string]any{
			"consumption_id": c.ID.String(),
			"lot_id":         LegacyNoLot,
			"reference":      ref.String(),
			"quantity":       qty.String(),
			"unit_cost":      unitCost.String(),
		},
	})

	return c, nil
}
