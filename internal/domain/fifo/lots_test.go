package fifo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/fifo"
)

func TestAddLotDefaults(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "10", 0)
	invoice := "INV-42"

	lot, err := f.ledger.Lots.AddLot(f.ctx, productID, qty(12), money("100"), money("11"),
		fifo.AddLotOptions{InvoiceID: &invoice})
	require.NoError(t, err)

	assert.Equal(t, fifo.LotStatusActive, lot.Status)
	assert.Equal(t, qty(12), lot.OriginalQuantity)
	assert.Equal(t, qty(12), lot.RemainingQuantity)
	assert.Equal(t, today, lot.PurchaseDate.String())
	assert.True(t, lot.UnitCostIncTax.Equal(money("111")))
	assert.Equal(t, "INV-42", *lot.InvoiceID)

	stored := f.lot(t, lot.ID)
	assert.Equal(t, lot.ID, stored.ID)
	assert.Equal(t, []audit.Action{audit.ActionLotCreated}, f.audit.Actions())
}

func TestAddLotValidation(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "10", 0)

	tests := []struct {
		name    string
		product id.ID
		qty     types.Quantity
		cost    string
		rate    string
	}{
		{"zero quantity", productID, 0, "1", "0"},
		{"negative quantity", productID, qty(-1), "1", "0"},
		{"negative cost", productID, qty(1), "-1", "0"},
		{"negative tax rate", productID, qty(1), "1", "-5"},
		{"missing product", id.ID{}, qty(1), "1", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Lots.AddLot(f.ctx, tt.product, tt.qty, money(tt.cost), money(tt.rate), fifo.AddLotOptions{})
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestGetActiveLotsOrdering(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "10", 0)
	other := f.product(t, "10", 0)

	late := f.addLot(t, productID, 1, "30", "2026-03-05")
	early := f.addLot(t, productID, 1, "10", "2026-03-01")
	sameDayFirst := f.addLot(t, productID, 1, "20", "2026-03-03")
	sameDaySecond := f.addLot(t, productID, 1, "21", "2026-03-03")
	expired := f.addLot(t, productID, 1, "5", "2026-02-01")
	f.addLot(t, other, 1, "1", "2026-01-01")

	require.NoError(t, f.ledger.Expiration.MarkLotExpired(f.ctx, expired.ID))

	lots, err := f.ledger.Lots.GetActiveLots(f.ctx, productID)
	require.NoError(t, err)

	got := make([]id.ID, len(lots))
	for i := range lots {
		got[i] = lots[i].ID
	}
	assert.Equal(t, []id.ID{early.ID, sameDayFirst.ID, sameDaySecond.ID, late.ID}, got)
}

func TestGetFIFOCost(t *testing.T) {
	f := newFixture(t)

	t.Run("oldest active lot", func(t *testing.T) {
		productID := f.product(t, "99", 0)
		f.addLot(t, productID, 2, "12", "2026-03-02")
		f.addLot(t, productID, 2, "8", "2026-03-01")

		cost, err := f.ledger.Lots.GetFIFOCost(f.ctx, productID)
		require.NoError(t, err)
		assert.True(t, cost.Equal(money("8")), "got %s", cost)
	})

	t.Run("tax inclusive product cost when no lots", func(t *testing.T) {
		productID := id.New()
		f.products.Put(catalogProduct(productID, "111", true))

		cost, err := f.ledger.Lots.GetFIFOCost(f.ctx, productID)
		require.NoError(t, err)
		assert.True(t, cost.Equal(money("100")), "got %s", cost)
	})

	t.Run("zero for unknown product", func(t *testing.T) {
		cost, err := f.ledger.Lots.GetFIFOCost(f.ctx, id.New())
		require.NoError(t, err)
		assert.True(t, cost.IsZero())
	})
}

func TestGetWeightedAverageCost(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "50", 0)

	f.addLot(t, productID, 4, "10", "2026-03-01")
	f.addLot(t, productID, 1, "15", "2026-03-02")

	avg, err := f.ledger.Lots.GetWeightedAverageCost(f.ctx, productID)
	require.NoError(t, err)
	assert.True(t, avg.Equal(money("11")), "got %s", avg)

	empty := f.product(t, "50", 0)
	avg, err = f.ledger.Lots.GetWeightedAverageCost(f.ctx, empty)
	require.NoError(t, err)
	assert.True(t, avg.Equal(money("50")), "got %s", avg)
}

func TestGetAvailableQuantity(t *testing.T) {
	f := newFixture(t)

	withLots := f.product(t, "1", 999)
	f.addLot(t, withLots, 3, "1", "2026-03-01")
	f.addLot(t, withLots, 4, "1", "2026-03-02")

	got, err := f.ledger.Lots.GetAvailableQuantity(f.ctx, withLots)
	require.NoError(t, err)
	assert.Equal(t, qty(7), got)

	legacy := f.product(t, "1", 25)
	got, err = f.ledger.Lots.GetAvailableQuantity(f.ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, qty(25), got)

	got, err = f.ledger.Lots.GetAvailableQuantity(f.ctx, id.New())
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), got)
}
