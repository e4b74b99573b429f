package fifo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/fifo"
)

func TestRevertConsumptionRestoresLots(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "40", 0)
	lot1 := f.addLot(t, productID, 5, "10", "2026-03-01")
	lot2 := f.addLot(t, productID, 5, "20", "2026-03-02")

	before1, before2 := *f.lot(t, lot1.ID), *f.lot(t, lot2.ID)

	ref := fifo.SaleRef("S-10")
	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(7), ref, fifo.ConsumeOptions{})
	require.NoError(t, err)
	assert.Equal(t, fifo.LotStatusDepleted, f.lot(t, lot1.ID).Status)

	res, err := f.ledger.Reversal.RevertConsumption(f.ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RemovedRecords)
	assert.Equal(t, qty(7), res.RestoredQuantity)

	after1, after2 := f.lot(t, lot1.ID), f.lot(t, lot2.ID)
	assert.Equal(t, before1.RemainingQuantity, after1.RemainingQuantity)
	assert.Equal(t, before1.Status, after1.Status)
	assert.Equal(t, before2.RemainingQuantity, after2.RemainingQuantity)
	assert.Equal(t, before2.Status, after2.Status)

	assert.Empty(t, f.records(t, ref))
	assert.Contains(t, f.audit.Actions(), audit.ActionReversal)
	f.requireConserved(t, productID)
}

func TestRevertConsumptionRemovesLegacyRecords(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	lot := f.addLot(t, productID, 1, "10", "2026-03-01")

	ref := fifo.AdjustmentRef("ADJ-1")
	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(3), ref, fifo.ConsumeOptions{})
	require.NoError(t, err)

	res, err := f.ledger.Reversal.RevertConsumption(f.ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RemovedRecords)
	assert.Equal(t, qty(1), res.RestoredQuantity)
	assert.Equal(t, qty(2), res.LegacyQuantity)

	assert.Equal(t, qty(1), f.lot(t, lot.ID).RemainingQuantity)
	assert.Equal(t, 0, f.consumptions.Len())
}

func TestRevertConsumptionOnlyTouchesItsReference(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	lot := f.addLot(t, productID, 10, "10", "2026-03-01")

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("A"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	_, err = f.ledger.Consumption.Consume(f.ctx, productID, qty(3), fifo.SaleRef("B"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	_, err = f.ledger.Consumption.Consume(f.ctx, productID, qty(1), fifo.ReturnRef("A"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	_, err = f.ledger.Reversal.RevertConsumption(f.ctx, fifo.SaleRef("A"))
	require.NoError(t, err)

	assert.Equal(t, qty(6), f.lot(t, lot.ID).RemainingQuantity)
	assert.Len(t, f.records(t, fifo.SaleRef("B")), 1)
	assert.Len(t, f.records(t, fifo.ReturnRef("A")), 1)
	f.requireConserved(t, productID)
}

func TestRevertConsumptionWithNothingRecorded(t *testing.T) {
	f := newFixture(t)

	res, err := f.ledger.Reversal.RevertConsumption(f.ctx, fifo.SaleRef("missing"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemovedRecords)

	_, err = f.ledger.Reversal.RevertConsumption(f.ctx, fifo.Reference{})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestRevertKeepsExpiredLotExpired(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	lot := f.addLot(t, productID, 4, "10", "2026-03-01")

	ref := fifo.SaleRef("S-11")
	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(1), ref, fifo.ConsumeOptions{})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Expiration.MarkLotExpired(f.ctx, lot.ID))

	_, err = f.ledger.Reversal.RevertConsumption(f.ctx, ref)
	require.NoError(t, err)

	stored := f.lot(t, lot.ID)
	assert.Equal(t, fifo.LotStatusExpired, stored.Status)
	assert.Equal(t, qty(4), stored.RemainingQuantity)
}

func TestRestoreForReturnUndoesOldestRecordFirst(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	older := f.addLot(t, productID, 6, "10", "2026-03-01")
	newer := f.addLot(t, productID, 4, "20", "2026-03-02")

	ref := fifo.SaleRef("S-20")
	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(10), ref, fifo.ConsumeOptions{})
	require.NoError(t, err)

	res, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-20", productID, qty(4))
	require.NoError(t, err)
	assert.Equal(t, qty(4), res.Restored)
	assert.True(t, res.TotalCost.Equal(money("40")), "got %s", res.TotalCost)
	assert.True(t, res.AvgUnitCost.Equal(money("10")), "got %s", res.AvgUnitCost)

	records := f.records(t, ref)
	require.Len(t, records, 2)
	assert.Equal(t, older.ID, *records[0].LotID)
	assert.Equal(t, qty(2), records[0].Quantity)
	assert.True(t, records[0].UnitCost.Equal(money("10")))
	assert.True(t, records[0].TotalCost.Equal(money("20")))
	assert.Equal(t, newer.ID, *records[1].LotID)
	assert.Equal(t, qty(4), records[1].Quantity)

	assert.Equal(t, qty(4), f.lot(t, older.ID).RemainingQuantity)
	assert.Equal(t, fifo.LotStatusActive, f.lot(t, older.ID).Status)
	assert.Equal(t, types.Quantity(0), f.lot(t, newer.ID).RemainingQuantity)
	assert.Contains(t, f.audit.Actions(), audit.ActionReturnRestored)
	f.requireConserved(t, productID)
}

func TestRestoreForReturnSpanningRecords(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	older := f.addLot(t, productID, 6, "10", "2026-03-01")
	newer := f.addLot(t, productID, 4, "20", "2026-03-02")

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(10), fifo.SaleRef("S-21"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	res, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-21", productID, qty(8))
	require.NoError(t, err)
	assert.Equal(t, qty(8), res.Restored)
	assert.True(t, res.TotalCost.Equal(money("100")), "got %s", res.TotalCost)

	records := f.records(t, fifo.SaleRef("S-21"))
	require.Len(t, records, 1)
	assert.Equal(t, newer.ID, *records[0].LotID)
	assert.Equal(t, qty(2), records[0].Quantity)

	assert.Equal(t, qty(6), f.lot(t, older.ID).RemainingQuantity)
	assert.Equal(t, qty(2), f.lot(t, newer.ID).RemainingQuantity)
	f.requireConserved(t, productID)
}

func TestRestoreForReturnCapsAtConsumed(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	other := f.product(t, "5", 0)
	f.addLot(t, productID, 3, "10", "2026-03-01")
	f.addLot(t, other, 3, "10", "2026-03-01")

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-22"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	_, err = f.ledger.Consumption.Consume(f.ctx, other, qty(1), fifo.SaleRef("S-22"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	res, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-22", productID, qty(5))
	require.NoError(t, err)
	assert.Equal(t, qty(2), res.Restored)

	records := f.records(t, fifo.SaleRef("S-22"))
	require.Len(t, records, 1)
	assert.Equal(t, other, records[0].ProductID)
}

func TestRestoreForReturnShrinksLegacyRecord(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "7", 0)

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(3), fifo.SaleRef("S-23"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	res, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-23", productID, qty(1))
	require.NoError(t, err)
	assert.Equal(t, qty(1), res.Restored)
	assert.True(t, res.TotalCost.Equal(money("7")))

	records := f.records(t, fifo.SaleRef("S-23"))
	require.Len(t, records, 1)
	assert.True(t, records[0].IsLegacy())
	assert.Equal(t, qty(2), records[0].Quantity)
	assert.True(t, records[0].TotalCost.Equal(money("14")))
}

func TestConservationAcrossSequence(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "3", 0)

	steps := []func() error{
		func() error { f.addLot(t, productID, 4, "10", "2026-03-01"); return nil },
		func() error { f.addLot(t, productID, 3, "12", "2026-02-01"); return nil },
		func() error {
			_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(5), fifo.SaleRef("C-1"), fifo.ConsumeOptions{})
			return err
		},
		func() error { f.addLot(t, productID, 2, "11", "2026-03-05"); return nil },
		func() error {
			_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(6), fifo.SaleRef("C-2"), fifo.ConsumeOptions{})
			return err
		},
		func() error {
			_, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "C-1", productID, qty(2))
			return err
		},
		func() error {
			_, err := f.ledger.Reversal.RevertConsumption(f.ctx, fifo.SaleRef("C-2"))
			return err
		},
		func() error {
			_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(1), fifo.AdjustmentRef("C-3"), fifo.ConsumeOptions{Strict: true})
			return err
		},
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		f.requireConserved(t, productID)
	}

	available, err := f.ledger.Lots.GetAvailableQuantity(f.ctx, productID)
	require.NoError(t, err)
	// 9 received, 3 still held by C-1, 1 by C-3.
	assert.Equal(t, qty(5), available)
}

func TestReversalReportsQuantityThatDidNotFitBack(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	lot := f.addLot(t, productID, 5, "10", "2026-03-01")

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-50"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	_, err = f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-51"), fifo.ConsumeOptions{})
	require.NoError(t, err)

	// A stock correction put one unit back outside the ledger.
	require.NoError(t, f.lots.UpdateBalance(f.ctx, lot.ID, qty(2), fifo.LotStatusActive))

	ret, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-51", productID, qty(2))
	require.NoError(t, err)
	assert.Equal(t, qty(2), ret.Restored)
	assert.Equal(t, qty(2), ret.ReturnedToLots)
	assert.Equal(t, qty(4), f.lot(t, lot.ID).RemainingQuantity)

	res, err := f.ledger.Reversal.RevertConsumption(f.ctx, fifo.SaleRef("S-50"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedRecords)
	assert.Equal(t, qty(1), res.RestoredQuantity)
	assert.Equal(t, qty(1), res.SkippedQuantity)
	assert.Equal(t, qty(5), f.lot(t, lot.ID).RemainingQuantity)
}

func TestReturnToFullLotReturnsNothingToLots(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "5", 0)
	lot := f.addLot(t, productID, 3, "10", "2026-03-01")

	_, err := f.ledger.Consumption.Consume(f.ctx, productID, qty(2), fifo.SaleRef("S-52"), fifo.ConsumeOptions{})
	require.NoError(t, err)
	require.NoError(t, f.lots.UpdateBalance(f.ctx, lot.ID, qty(3), fifo.LotStatusActive))

	ret, err := f.ledger.Reversal.RestoreConsumptionForReturn(f.ctx, "S-52", productID, qty(2))
	require.NoError(t, err)
	assert.Equal(t, qty(2), ret.Restored)
	assert.Equal(t, types.Quantity(0), ret.ReturnedToLots)
	assert.Empty(t, f.records(t, fifo.SaleRef("S-52")))
}
