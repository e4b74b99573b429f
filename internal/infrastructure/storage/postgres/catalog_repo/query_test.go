package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/catalog"
)

func TestListStockedQuery(t *testing.T) {
	sql, args, err := listStockedQuery().ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, name, stock_quantity, cost_price, prices_include_tax, tax_rate, stock_updated_at "+
			"FROM products WHERE stock_quantity > $1 ORDER BY id",
		sql)
	assert.Equal(t, []any{0}, args)
}

func TestUpsertProductQuery(t *testing.T) {
	p := catalog.Product{
		ID:            id.New(),
		Name:          "Espresso beans",
		StockQuantity: types.NewQuantity(12),
		CostPrice:     types.MustMoney("8.80"),
	}

	sql, args, err := upsertProductQuery(p).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO products")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET")
	assert.Len(t, args, 7)
	assert.Contains(t, args, "Espresso beans")
}
