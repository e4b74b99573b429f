// Package catalog_repo reads the product catalog and the sales register the ledger depends on.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalog"
	"lotledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[catalog.Product]()

var _ catalog.Repository = (*ProductRepo)(nil)

// ProductRepo reads products.
type ProductRepo struct {
	txm *postgres.TxManager
}

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	sql, args, err := builder().
		Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) ListStocked(ctx context.Context) ([]catalog.Product, error) {
	sql, args, err := listStockedQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list stocked products: %w", err)
	}
	return products, nil
}

// Upsert inserts or replaces a product. Used by the seed command.
func (r *ProductRepo) Upsert(ctx context.Context, p catalog.Product) error {
	sql, args, err := upsertProductQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func listStockedQuery() squirrel.SelectBuilder {
	return builder().
		Select(productColumns...).
		From(productsTable).
		Where(squirrel.Gt{"stock_quantity": 0}).
		OrderBy("id")
}

func upsertProductQuery(p catalog.Product) squirrel.InsertBuilder {
	return builder().
		Insert(productsTable).
		SetMap(postgres.StructToMap(p)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stock_quantity = EXCLUDED.stock_quantity,
			cost_price = EXCLUDED.cost_price,
			prices_include_tax = EXCLUDED.prices_include_tax,
			tax_rate = EXCLUDED.tax_rate,
			stock_updated_at = EXCLUDED.stock_updated_at`)
}
