package fifo

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/tx"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/catalog"
)

var tracer = otel.Tracer("lotledger/fifo")

// Metrics receives ledger counters. See infrastructure/metrics for the Prometheus implementation.
type Metrics interface {
	LotCreated()
	// ConsumptionRecorded is called per record; source is "lot" or "legacy".
	ConsumptionRecorded(source string, quantity types.Quantity)
	// Reverted is called per reversal call; mode is "full" or "partial".
	Reverted(mode string, records int)
	LotExpired()
}

type nopMetrics struct{}

func (nopMetrics) LotCreated() {}
func (nopMetrics) ConsumptionRecorded(string, types.Quantity) {}
func (nopMetrics) Reverted(string, int) {}
func (nopMetrics) LotExpired() {}

// ProductGuard runs fn while no other writer touches the product's lots.
type ProductGuard func(ctx context.Context, productID id.ID, fn func(ctx context.Context) error) error

func unguarded(ctx context.Context, _ id.ID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Deps are the collaborators of the ledger.
type Deps struct {
	Lots         LotRepository
	Consumptions ConsumptionRepository
	Products     catalog.Repository
	Shifts       ShiftSales

	// CostExTax defaults to catalog.CostExTax.
	CostExTax catalog.CostFunc

	// TxManager groups the writes of a single lot draw or restoration.
	TxManager tx.ReadOnlyManager

	Audit   *audit.Recorder
	Metrics Metrics

	// Guard serializes expiry marking with draws on the same product.
	// Callers of Consume and the reversal operations take the same guard themselves.
	Guard ProductGuard

	// Now and Location decide what "today" is. Default: time.Now in UTC.
	Now      func() time.Time
	Location *time.Location
}

// Ledger bundles the ledger components over one set of stores.
type Ledger struct {
	Lots        *LotManager
	Consumption *ConsumptionEngine
	Reversal    *ReversalEngine
	Expiration  *ExpirationTracker
	Reporter    *Reporter
	Migrator    *Migrator
}

// New wires every component. Lots, Consumptions and TxManager are required.
func New(d Deps) *Ledger {
	b := newBase(d)
	manager := &LotManager{base: b}
	return &Ledger{
		Lots:        manager,
		Consumption: &ConsumptionEngine{base: b},
		Reversal:    &ReversalEngine{base: b},
		Expiration:  &ExpirationTracker{base: b},
		Reporter:    &Reporter{base: b},
		Migrator:    &Migrator{base: b, manager: manager},
	}
}

// base carries the shared collaborators of all components.
type base struct {
	lots         LotRepository
	consumptions ConsumptionRepository
	products     catalog.Repository
	shifts       ShiftSales
	costExTax    catalog.CostFunc
	txm          tx.ReadOnlyManager
	audit        *audit.Recorder
	metrics      Metrics
	guard        ProductGuard
	now          func() time.Time
	loc          *time.Location
}

func newBase(d Deps) *base {
	b := &base{
		lots:         d.Lots,
		consumptions: d.Consumptions,
		products:     d.Products,
		shifts:       d.Shifts,
		costExTax:    d.CostExTax,
		txm:          d.TxManager,
		audit:        d.Audit,
		metrics:      d.Metrics,
		guard:        d.Guard,
		now:          d.Now,
		loc:          d.Location,
	}
	if b.costExTax == nil {
		b.costExTax = catalog.CostExTax
	}
	if b.metrics == nil {
		b.metrics = nopMetrics{}
	}
	if b.guard == nil {
		b.guard = unguarded
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.loc == nil {
		b.loc = time.UTC
	}
	return b
}

func (b *base) today() types.Date {
	return types.DateOf(b.now().In(b.loc))
}

// productCost resolves the tax-exclusive configured cost of a product.
// found is false when the product is unknown.
func (b *base) productCost(ctx context.Context, productID id.ID) (cost types.Money, found bool, err error) {
	p, err := b.product(ctx, productID)
	if err != nil || p == nil {
		return types.Zero(), false, err
	}
	return b.costExTax(*p), true, nil
}

// product returns nil without error for unknown products.
func (b *base) product(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	if b.products == nil {
		return nil, nil
	}
	p, err := b.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	return p, nil
}

func (b *base) activeLots(ctx context.Context, productID id.ID) ([]Lot, error) {
	status := LotStatusActive
	lots, err := b.lots.List(ctx, LotFilter{
		ProductID:    &productID,
		Status:       &status,
		PositiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list active lots: %w", err)
	}
	return lots, nil
}
