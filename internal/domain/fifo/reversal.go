package fifo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/pkg/logger"
)

// ReversalEngine undoes consumption, fully or partially.
type ReversalEngine struct {
	*base
}

// RevertResult summarizes a full reversal.
type RevertResult struct {
	// RestoredQuantity went back into real lots.
	RestoredQuantity types.Quantity
	// SkippedQuantity belonged to lot-backed records but did not fit back:
	// the lot was gone or already at its original quantity.
	SkippedQuantity types.Quantity
	// LegacyQuantity belonged to records without a lot.
	LegacyQuantity types.Quantity
	RemovedRecords int
}

// RestoreResult summarizes a partial return.
type RestoreResult struct {
	// Restored is the consumption given back; it may be less than requested
	// when the sale consumed less.
	Restored types.Quantity
	// ReturnedToLots is the part of Restored that re-entered lot balances.
	ReturnedToLots types.Quantity
	AvgUnitCost    types.Money
	TotalCost   types.Money
}

// RevertConsumption deletes every record of ref and gives real-lot quantities back.
func (r *ReversalEngine) RevertConsumption(ctx context.Context, ref Reference) (*RevertResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "fifo.RevertConsumption",
		trace.WithAttributes(attribute.String("fifo.reference", ref.String())))
	defer span.End()

	records, err := r.consumptions.List(ctx, ConsumptionFilter{Reference: &ref})
	if err != nil {
		return nil, fmt.Errorf("list consumptions: %w", err)
	}

	result := &RevertResult{}
	for i := range records {
		c := records[i]
		var restored types.Quantity
		err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if c.LotID != nil {
				n, err := r.restoreLot(ctx, *c.LotID, c.Quantity)
				if err != nil {
					return err
				}
				restored = n
			}
			if err := r.consumptions.Delete(ctx, c.ID); err != nil {
				return fmt.Errorf("delete consumption %s: %w", c.ID, err)
			}
			return nil
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		if c.IsLegacy() {
			result.LegacyQuantity += c.Quantity
		} else {
			result.RestoredQuantity += restored
			result.SkippedQuantity += c.Quantity - restored
		}
		result.RemovedRecords++
	}

	if result.RemovedRecords == 0 {
		logger.Info(ctx, "nothing to revert", "reference", ref.String())
		return result, nil
	}

	r.metrics.Reverted("full", result.RemovedRecords)
	r.audit.Record(ctx, audit.Event{
		Action:     audit.ActionReversal,
		EntityType: audit.EntityConsumption,
		EntityID:   ref.String(),
		Details: map[string]any{
			"removed_records":   result.RemovedRecords,
			"restored_quantity": result.RestoredQuantity.String(),
			"skipped_quantity":  result.SkippedQuantity.String(),
			"legacy_quantity":   result.LegacyQuantity.String(),
		},
	})

	logger.Info(ctx, "reverted consumption",
		"reference", ref.String(),
		"records", result.RemovedRecords,
		"restored", result.RestoredQuantity,
	)

	return result, nil
}

// RestoreConsumptionForReturn gives back up to quantity units of a sale,
// walking its records for the product oldest-created first. Fully restored
// records are deleted; the last touched one is shrunk at its original unit cost.
func (r *ReversalEngine) RestoreConsumptionForReturn(
	ctx context.Context,
	saleID string,
	productID id.ID,
	quantity types.Quantity,
) (*RestoreResult, error) {
	ref := SaleRef(saleID)
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if quantity.IsNegative() {
		return nil, apperror.NewValidation("return quantity must not be negative")
	}

	result := &RestoreResult{TotalCost: types.Zero(), AvgUnitCost: types.Zero()}
	if quantity.IsZero() {
		return result, nil
	}

	ctx, span := tracer.Start(ctx, "fifo.RestoreConsumptionForReturn",
		trace.WithAttributes(
			attribute.String("fifo.reference", ref.String()),
			attribute.String("fifo.product_id", productID.String()),
		))
	defer span.End()

	records, err := r.consumptions.List(ctx, ConsumptionFilter{Reference: &ref, ProductID: &productID})
	if err != nil {
		return nil, fmt.Errorf("list consumptions: %w", err)
	}

	remaining := quantity
	touched := 0
	for i := range records {
		if !remaining.IsPositive() {
			break
		}
		c := records[i]
		take := types.MinQuantity(remaining, c.Quantity)
		if !take.IsPositive() {
			continue
		}

		var returned types.Quantity
		err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if c.LotID != nil {
				n, err := r.restoreLot(ctx, *c.LotID, take)
				if err != nil {
					return err
				}
				returned = n
			}
			if take == c.Quantity {
				if err := r.consumptions.Delete(ctx, c.ID); err != nil {
					return fmt.Errorf("delete consumption %s: %w", c.ID, err)
				}
				return nil
			}
			left := c.Quantity - take
			if err := r.consumptions.UpdateQuantity(ctx, c.ID, left, types.Cost(left, c.UnitCost)); err != nil {
				return fmt.Errorf("shrink consumption %s: %w", c.ID, err)
			}
			return nil
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		result.Restored += take
		result.ReturnedToLots += returned
		result.TotalCost = result.TotalCost.Add(types.Cost(take, c.UnitCost))
		remaining -= take
		touched++
	}

	result.AvgUnitCost = types.UnitCost(result.TotalCost, result.Restored)

	if remaining.IsPositive() {
		logger.Warn(ctx, "return exceeds consumed quantity",
			"sale_id", saleID,
			"product_id", productID,
			"requested", quantity,
			"restored", result.Restored,
		)
	}
	if touched == 0 {
		return result, nil
	}

	r.metrics.Reverted("partial", touched)
	r.audit.Record(ctx, audit.Event{
		Action:     audit.ActionReturnRestored,
		EntityType: audit.EntityConsumption,
		EntityID:   ref.String(),
		Details: map[string]any{
			"product_id": productID.String(),
			"requested":  quantity.String(),
			"restored":   result.Restored.String(),
			"to_lots":    result.ReturnedToLots.String(),
			"total_cost": result.TotalCost.String(),
		},
	})

	logger.Info(ctx, "restored consumption for return",
		"sale_id", saleID,
		"product_id", productID,
		"restored", result.Restored,
	)

	return result, nil
}

// restoreLot adds qty back to a lot and reports how much it actually took.
// A depleted lot becomes active again; an expired lot keeps its status.
// The balance never exceeds the original quantity.
func (r *ReversalEngine) restoreLot(ctx context.Context, lotID id.ID, qty types.Quantity) (types.Quantity, error) {
	lot, err := r.lots.GetByID(ctx, lotID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "lot of consumption record is missing, skipping restore", "lot_id", lotID)
			return 0, nil
		}
		return 0, fmt.Errorf("get lot %s: %w", lotID, err)
	}

	newRemaining := lot.RemainingQuantity + qty
	if newRemaining > lot.OriginalQuantity {
		logger.Warn(ctx, "restore exceeds lot original quantity, clamping",
			"lot_id", lotID,
			"original", lot.OriginalQuantity,
			"computed", newRemaining,
		)
		newRemaining = lot.OriginalQuantity
	}

	status := lot.Status
	if status != LotStatusExpired {
		status = LotStatusActive
	}

	if err := r.lots.UpdateBalance(ctx, lotID, newRemaining, status); err != nil {
		return 0, fmt.Errorf("restore lot %s balance: %w", lotID, err)
	}
	return newRemaining - lot.RemainingQuantity, nil
}
