package fifo_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

func TestListLotsQueryActiveForProduct(t *testing.T) {
	productID := id.New()
	status := fifo.LotStatusActive

	sql, args, err := listLotsQuery(fifo.LotFilter{
		ProductID:    &productID,
		Status:       &status,
		PositiveOnly: true,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM fifo_lots WHERE product_id = $1 AND status = $2 AND remaining_quantity > $3")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY purchase_date ASC, created_at ASC, id ASC"))
	// squirrel resolves driver.Valuer arguments while building.
	assert.Equal(t, []any{productID.String(), status, 0}, args)
}

func TestListLotsQueryExpirationWindow(t *testing.T) {
	from := types.MustDate("2026-03-10")
	to := from.AddDays(7)

	sql, args, err := listLotsQuery(fifo.LotFilter{ExpiresFrom: &from, ExpiresTo: &to}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE expiration_date >= $1 AND expiration_date <= $2")
	assert.Equal(t, []any{from.String(), to.String()}, args)
}

func TestListLotsQuerySelectsEveryColumn(t *testing.T) {
	sql, args, err := listLotsQuery(fifo.LotFilter{}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT id, product_id, invoice_id, receipt_id, lot_number, purchase_date, expiration_date")
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestListConsumptionsQueryByReference(t *testing.T) {
	tests := []struct {
		ref    fifo.Reference
		column string
	}{
		{fifo.SaleRef("S-1"), "sale_id"},
		{fifo.ReturnRef("R-1"), "return_id"},
		{fifo.AdjustmentRef("A-1"), "adjustment_id"},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref.Kind), func(t *testing.T) {
			ref := tt.ref
			sql, args, err := listConsumptionsQuery(fifo.ConsumptionFilter{Reference: &ref}).ToSql()
			require.NoError(t, err)

			assert.Contains(t, sql, "WHERE "+tt.column+" = $1 ORDER BY created_at ASC, id ASC")
			assert.Equal(t, []any{ref.ID}, args)
		})
	}
}

func TestListConsumptionsQueryShiftAndPeriod(t *testing.T) {
	from := types.MustDate("2026-03-01")
	to := types.MustDate("2026-03-31")

	sql, args, err := listConsumptionsQuery(fifo.ConsumptionFilter{
		SaleIDs:  []string{"S-1", "S-2"},
		FromDate: &from,
		ToDate:   &to,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE sale_id IN ($1,$2) AND consumed_on >= $3 AND consumed_on <= $4")
	assert.Equal(t, []any{"S-1", "S-2", from.String(), to.String()}, args)
}

func TestConsumptionRowRoundTrip(t *testing.T) {
	lotID := id.New()
	c := fifo.Consumption{
		ID:        id.New(),
		Reference: fifo.ReturnRef("R-9"),
		LotID:     &lotID,
		ProductID: id.New(),
		Quantity:  types.NewQuantity(2),
		UnitCost:  types.MustMoney("1.25"),
		TotalCost: types.MustMoney("2.50"),
		Date:      types.MustDate("2026-03-10"),
		CreatedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	row := toRow(&c)
	assert.Nil(t, row.SaleID)
	require.NotNil(t, row.ReturnID)
	assert.Equal(t, "R-9", *row.ReturnID)

	assert.Equal(t, c, row.toDomain())
}

func TestLegacyConsumptionRowHasNoLot(t *testing.T) {
	c := fifo.Consumption{ID: id.New(), Reference: fifo.SaleRef("S-1"), ProductID: id.New()}

	row := toRow(&c)
	assert.Nil(t, row.LotID)
	assert.Equal(t, fifo.LegacyNoLot, (&fifo.Consumption{LotID: row.toDomain().LotID}).LotRef())
}
