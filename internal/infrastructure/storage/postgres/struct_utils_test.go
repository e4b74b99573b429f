package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

func TestExtractDBColumnsFollowsFieldOrder(t *testing.T) {
	cols := ExtractDBColumns[fifo.Lot]()

	assert.Equal(t, []string{
		"id", "product_id", "invoice_id", "receipt_id", "lot_number",
		"purchase_date", "expiration_date",
		"original_quantity", "remaining_quantity",
		"unit_cost", "unit_cost_inc_tax", "tax_rate",
		"status", "created_at", "updated_at",
	}, cols)
}

func TestStructToMapLot(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	invoice := "INV-7"
	lot := &fifo.Lot{
		ID:                id.New(),
		ProductID:         id.New(),
		InvoiceID:         &invoice,
		PurchaseDate:      types.MustDate("2026-03-01"),
		OriginalQuantity:  types.NewQuantity(10),
		RemainingQuantity: types.NewQuantity(4),
		UnitCost:          types.MustMoney("2.50"),
		Status:            fifo.LotStatusActive,
		CreatedAt:         now,
	}

	m := StructToMap(lot)

	assert.Equal(t, lot.ID, m["id"])
	assert.Equal(t, &invoice, m["invoice_id"])
	assert.Nil(t, m["expiration_date"].(*types.Date))
	assert.Equal(t, types.NewQuantity(4), m["remaining_quantity"])
	assert.Equal(t, fifo.LotStatusActive, m["status"])
	assert.Equal(t, now, m["created_at"])
	assert.Len(t, m, 15)
}

func TestStructToMapRejectsNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*fifo.Lot)(nil)))
}
