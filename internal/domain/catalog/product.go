// Package catalog exposes the product data the ledger reads: legacy stock,
// configured cost price and tax settings.
package catalog

import (
	"context"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Product is the read model of a catalog product.
type Product struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// StockQuantity is the on-hand figure tracked before lots existed.
	StockQuantity types.Quantity `db:"stock_quantity" json:"stockQuantity"`

	CostPrice        types.Money `db:"cost_price" json:"costPrice"`
	PricesIncludeTax bool        `db:"prices_include_tax" json:"pricesIncludeTax"`
	TaxRate          types.Rate  `db:"tax_rate" json:"taxRate"`

	StockUpdatedAt *time.Time `db:"stock_updated_at" json:"stockUpdatedAt,omitempty"`
}

// Repository is the read-only product source.
type Repository interface {
	// GetByID returns apperror NOT_FOUND for unknown products.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// ListStocked returns products with positive StockQuantity.
	ListStocked(ctx context.Context) ([]Product, error)
}

// CostFunc yields the tax-exclusive unit cost of a product. It must be pure.
type CostFunc func(p Product) types.Money

// CostExTax strips tax from cost prices entered tax-inclusive.
func CostExTax(p Product) types.Money {
	if p.PricesIncludeTax && p.TaxRate.IsPositive() {
		return types.StripTax(p.CostPrice, p.TaxRate)
	}
	return p.CostPrice
}
