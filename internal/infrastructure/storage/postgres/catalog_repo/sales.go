package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/storage/postgres"
)

var _ fifo.ShiftSales = (*SalesRepo)(nil)

// SalesRepo resolves register shifts to sale ids.
type SalesRepo struct {
	txm *postgres.TxManager
}

func NewSalesRepo(txm *postgres.TxManager) *SalesRepo {
	return &SalesRepo{txm: txm}
}

func (r *SalesRepo) SaleIDsForShift(ctx context.Context, shiftID string) ([]string, error) {
	sql, args, err := builder().
		Select("id").
		From("sales").
		Where(squirrel.Eq{"shift_id": shiftID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list shift sales: %w", err)
	}
	return ids, nil
}

// AddSale registers a sale under a shift. Repeated calls are no-ops.
func (r *SalesRepo) AddSale(ctx context.Context, shiftID, saleID string) error {
	sql, args, err := builder().
		Insert("sales").
		Columns("id", "shift_id").
		Values(saleID, shiftID).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}
