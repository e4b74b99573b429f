package fifo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/catalog"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/storage/memory"
)

// clock ticks one millisecond per reading so creation order is observable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *clock) Set(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = types.MustDate(day).Time().Add(12 * time.Hour)
}

type fixture struct {
	ctx          context.Context
	ledger       *fifo.Ledger
	lots         *memory.LotStore
	consumptions *memory.ConsumptionStore
	products     *memory.ProductStore
	sales        *memory.SalesStore
	audit        *memory.AuditLog
	clock        *clock
}

const today = "2026-03-10"

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:          context.Background(),
		lots:         memory.NewLotStore(),
		consumptions: memory.NewConsumptionStore(),
		products:     memory.NewProductStore(),
		sales:        memory.NewSalesStore(),
		audit:        &memory.AuditLog{},
		clock:        &clock{},
	}
	f.clock.Set(today)

	f.ledger = fifo.New(fifo.Deps{
		Lots:         f.lots,
		Consumptions: f.consumptions,
		Products:     f.products,
		Shifts:       f.sales,
		TxManager:    memory.TxManager{},
		Audit:        audit.NewRecorder(f.audit),
		Now:          f.clock.Now,
	})
	return f
}

func (f *fixture) product(t *testing.T, cost string, stock int64) id.ID {
	t.Helper()
	p := catalog.Product{
		ID:            id.New(),
		Name:          "Product",
		StockQuantity: types.NewQuantity(stock),
		CostPrice:     types.MustMoney(cost),
		TaxRate:       types.MustMoney("11"),
	}
	f.products.Put(p)
	return p.ID
}

func (f *fixture) addLot(t *testing.T, productID id.ID, qty int64, cost, purchaseDate string) *fifo.Lot {
	t.Helper()
	d := types.MustDate(purchaseDate)
	lot, err := f.ledger.Lots.AddLot(f.ctx, productID, types.NewQuantity(qty), types.MustMoney(cost), types.MustMoney("11"),
		fifo.AddLotOptions{PurchaseDate: &d})
	require.NoError(t, err)
	return lot
}

func (f *fixture) lot(t *testing.T, lotID id.ID) *fifo.Lot {
	t.Helper()
	lot, err := f.lots.GetByID(f.ctx, lotID)
	require.NoError(t, err)
	return lot
}

func (f *fixture) records(t *testing.T, ref fifo.Reference) []fifo.Consumption {
	t.Helper()
	out, err := f.consumptions.List(f.ctx, fifo.ConsumptionFilter{Reference: &ref})
	require.NoError(t, err)
	return out
}

// requireConserved checks remaining + drawn == original for every lot of the product.
func (f *fixture) requireConserved(t *testing.T, productID id.ID) {
	t.Helper()

	lots, err := f.lots.List(f.ctx, fifo.LotFilter{ProductID: &productID})
	require.NoError(t, err)
	records, err := f.consumptions.List(f.ctx, fifo.ConsumptionFilter{ProductID: &productID})
	require.NoError(t, err)

	drawn := make(map[id.ID]types.Quantity)
	for _, c := range records {
		if c.LotID != nil {
			drawn[*c.LotID] += c.Quantity
		}
	}
	for _, l := range lots {
		require.Equal(t, l.OriginalQuantity, l.RemainingQuantity+drawn[l.ID], "lot %s", l.ID)
		require.True(t, l.RemainingQuantity >= 0 && l.RemainingQuantity <= l.OriginalQuantity)
	}
}

func qty(n int64) types.Quantity { return types.NewQuantity(n) }

func money(s string) types.Money { return types.MustMoney(s) }

func catalogProduct(productID id.ID, cost string, inclusive bool) catalog.Product {
	return catalog.Product{
		ID:               productID,
		Name:             "Product",
		CostPrice:        types.MustMoney(cost),
		PricesIncludeTax: inclusive,
		TaxRate:          types.MustMoney("11"),
	}
}

var errStorage = errors.New("storage unavailable")

// failingLots fails balance updates of one lot.
type failingLots struct {
	*memory.LotStore
	failOn string
}

func (l *failingLots) UpdateBalance(ctx context.Context, lotID id.ID, remaining types.Quantity, status fifo.LotStatus) error {
	if lotID.String() == l.failOn {
		return errStorage
	}
	return l.LotStore.UpdateBalance(ctx, lotID, remaining, status)
}

func newProductID() id.ID { return id.New() }
