package fifo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/storage/memory"
)

func (f *fixture) expiringLot(t *testing.T, productID id.ID, expires types.Date) *fifo.Lot {
	t.Helper()
	purchase := types.MustDate("2026-01-01")
	lot, err := f.ledger.Lots.AddLot(f.ctx, productID, qty(2), money("1"), money("0"), fifo.AddLotOptions{
		PurchaseDate:   &purchase,
		ExpirationDate: &expires,
	})
	require.NoError(t, err)
	return lot
}

func ids(lots []fifo.Lot) []id.ID {
	out := make([]id.ID, len(lots))
	for i := range lots {
		out[i] = lots[i].ID
	}
	return out
}

func TestExpirationPartition(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)

	yesterday := f.expiringLot(t, productID, now.AddDays(-1))
	inThree := f.expiringLot(t, productID, now.AddDays(3))
	todayLot := f.expiringLot(t, productID, now)
	edge := f.expiringLot(t, productID, now.AddDays(7))
	f.expiringLot(t, productID, now.AddDays(8))
	f.addLot(t, productID, 1, "1", "2026-01-01")

	expiring, err := f.ledger.Expiration.GetExpiringLots(f.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{todayLot.ID, inThree.ID, edge.ID}, ids(expiring))

	expired, err := f.ledger.Expiration.GetExpiredLots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{yesterday.ID}, ids(expired))

	assert.NotContains(t, ids(expiring), yesterday.ID)
	assert.NotContains(t, ids(expired), inThree.ID)
}

func TestExpiringLotsDefaultWindow(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)

	inside := f.expiringLot(t, productID, now.AddDays(fifo.DefaultExpiryWindow))
	f.expiringLot(t, productID, now.AddDays(fifo.DefaultExpiryWindow+1))

	expiring, err := f.ledger.Expiration.GetExpiringLots(f.ctx, fifo.DefaultExpiryWindow)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{inside.ID}, ids(expiring))
}

func TestExpiringLotsZeroWindowIsToday(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)

	todayLot := f.expiringLot(t, productID, now)
	f.expiringLot(t, productID, now.AddDays(1))
	f.expiringLot(t, productID, now.AddDays(3))

	expiring, err := f.ledger.Expiration.GetExpiringLots(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{todayLot.ID}, ids(expiring))

	_, err = f.ledger.Expiration.GetExpiringLots(f.ctx, -1)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestExpirationIgnoresEmptyAndInactiveLots(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)

	drained := f.expiringLot(t, productID, now.AddDays(-2))
	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-30"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	require.Equal(t, fifo.LotStatusDepleted, f.lot(t, drained.ID).Status)

	expired, err := f.ledger.Expiration.GetExpiredLots(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestMarkLotExpired(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	lot := f.addLot(t, productID, 5, "1", "2026-03-01")

	require.NoError(t, f.ledger.Expiration.MarkLotExpired(f.ctx, lot.ID))

	stored := f.lot(t, lot.ID)
	assert.Equal(t, fifo.LotStatusExpired, stored.Status)
	assert.Equal(t, qty(5), stored.RemainingQuantity)
	assert.Contains(t, f.audit.Actions(), audit.ActionLotExpired)

	active, err := f.ledger.Lots.GetActiveLots(f.ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = f.ledger.Expiration.MarkLotExpired(f.ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestExpireOverdueLots(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)

	a := f.expiringLot(t, productID, now.AddDays(-10))
	b := f.expiringLot(t, productID, now.AddDays(-1))
	keep := f.expiringLot(t, productID, now)

	marked, err := f.ledger.Expiration.ExpireOverdueLots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	assert.Equal(t, fifo.LotStatusExpired, f.lot(t, a.ID).Status)
	assert.Equal(t, fifo.LotStatusExpired, f.lot(t, b.ID).Status)
	assert.Equal(t, fifo.LotStatusActive, f.lot(t, keep.ID).Status)

	marked, err = f.ledger.Expiration.ExpireOverdueLots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}

// expiringMidDraw expires a lot just before the engine writes its new balance.
type expiringMidDraw struct {
	*memory.LotStore
}

func (l *expiringMidDraw) UpdateBalance(ctx context.Context, lotID id.ID, remaining types.Quantity, status fifo.LotStatus) error {
	if err := l.LotStore.UpdateStatus(ctx, lotID, fifo.LotStatusExpired); err != nil {
		return err
	}
	return l.LotStore.UpdateBalance(ctx, lotID, remaining, status)
}

func TestExpiredStatusSurvivesConcurrentDraw(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	lot := f.addLot(t, productID, 5, "10", "2026-03-01")

	ledger := fifo.New(fifo.Deps{
		Lots:         &expiringMidDraw{LotStore: f.lots},
		Consumptions: f.consumptions,
		TxManager:    memory.TxManager{},
	})

	_, err := ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-40"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	stored := f.lot(t, lot.ID)
	assert.Equal(t, fifo.LotStatusExpired, stored.Status)
	assert.Equal(t, qty(3), stored.RemainingQuantity)
}

func TestMarkLotExpiredRunsUnderProductGuard(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "1", 0)
	now := types.MustDate(today)
	f.expiringLot(t, productID, now.AddDays(-1))
	f.expiringLot(t, productID, now.AddDays(-2))

	var guarded []id.ID
	ledger := fifo.New(fifo.Deps{
		Lots:         f.lots,
		Consumptions: f.consumptions,
		TxManager:    memory.TxManager{},
		Now:          f.clock.Now,
		Guard: func(ctx context.Context, p id.ID, fn func(ctx context.Context) error) error {
			guarded = append(guarded, p)
			return fn(ctx)
		},
	})

	marked, err := ledger.Expiration.ExpireOverdueLots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	assert.Equal(t, []id.ID{productID, productID}, guarded)

	busy := apperror.NewConflict("locked")
	ledger = fifo.New(fifo.Deps{
		Lots:         f.lots,
		Consumptions: f.consumptions,
		TxManager:    memory.TxManager{},
		Guard: func(context.Context, id.ID, func(context.Context) error) error {
			return busy
		},
	})
	lot := f.addLot(t, productID, 1, "1", "2026-03-01")
	assert.ErrorIs(t, ledger.Expiration.MarkLotExpired(f.ctx, lot.ID), busy)
	assert.Equal(t, fifo.LotStatusActive, f.lot(t, lot.ID).Status)
}
