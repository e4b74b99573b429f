package fifo

import (
	"context"
	"fmt"
	"slices"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/audit"
	"lotledger/pkg/logger"
)

// DefaultExpiryWindow is the look-ahead callers use when none is requested.
const DefaultExpiryWindow = 7

// ExpirationTracker classifies lots by expiration date relative to today.
type ExpirationTracker struct {
	*base
}

// GetExpiringLots returns drawable lots expiring within [today, today+days].
// days = 0 selects lots expiring today only.
func (t *ExpirationTracker) GetExpiringLots(ctx context.Context, days int) ([]Lot, error) {
	if days < 0 {
		return nil, apperror.NewValidation("expiry window must not be negative").WithDetail("days", days)
	}
	today := t.today()
	until := today.AddDays(days)
	status := LotStatusActive

	lots, err := t.lots.List(ctx, LotFilter{
		Status:       &status,
		PositiveOnly: true,
		ExpiresFrom:  &today,
		ExpiresTo:    &until,
	})
	if err != nil {
		return nil, fmt.Errorf("list expiring lots: %w", err)
	}
	sortByExpiration(lots)
	return lots, nil
}

// GetExpiredLots returns drawable lots whose expiration date is before today.
func (t *ExpirationTracker) GetExpiredLots(ctx context.Context) ([]Lot, error) {
	today := t.today()
	status := LotStatusActive

	lots, err := t.lots.List(ctx, LotFilter{
		Status:        &status,
		PositiveOnly:  true,
		ExpiresBefore: &today,
	})
	if err != nil {
		return nil, fmt.Errorf("list expired lots: %w", err)
	}
	sortByExpiration(lots)
	return lots, nil
}

// MarkLotExpired moves the lot to the terminal expired state under the product guard.
func (t *ExpirationTracker) MarkLotExpired(ctx context.Context, lotID id.ID) error {
	lot, err := t.lots.GetByID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("get lot %s: %w", lotID, err)
	}
	return t.guard(ctx, lot.ProductID, func(ctx context.Context) error {
		return t.markExpired(ctx, lotID)
	})
}

func (t *ExpirationTracker) markExpired(ctx context.Context, lotID id.ID) error {
	// Re-read under the guard; a draw may have finished in between.
	lot, err := t.lots.GetByID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("get lot %s: %w", lotID, err)
	}
	if err := t.lots.UpdateStatus(ctx, lotID, LotStatusExpired); err != nil {
		return fmt.Errorf("mark lot %s expired: %w", lotID, err)
	}

	t.metrics.LotExpired()
	t.audit.Record(ctx, audit.Event{
		Action:     audit.ActionLotExpired,
		EntityType: audit.EntityLot,
		EntityID:   lotID.String(),
		Details: map[string]any{
			"product_id":      lot.ProductID.String(),
			"previous_status": string(lot.Status),
			"remaining":       lot.RemainingQuantity.String(),
		},
	})

	logger.Info(ctx, "lot marked expired",
		"lot_id", lotID,
		"product_id", lot.ProductID,
		"remaining", lot.RemainingQuantity,
	)
	return nil
}

// ExpireOverdueLots marks every lot GetExpiredLots reports. It returns how many were marked.
func (t *ExpirationTracker) ExpireOverdueLots(ctx context.Context) (int, error) {
	lots, err := t.GetExpiredLots(ctx)
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range lots {
		if err := t.MarkLotExpired(ctx, lots[i].ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func sortByExpiration(lots []Lot) {
	slices.SortStableFunc(lots, func(a, b Lot) int {
		return a.ExpirationDate.Compare(*b.ExpirationDate)
	})
}
