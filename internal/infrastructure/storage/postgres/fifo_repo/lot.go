// Package fifo_repo provides PostgreSQL implementations of the ledger repositories.
package fifo_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/storage/postgres"
)

const lotsTable = "fifo_lots"

var lotColumns = postgres.ExtractDBColumns[fifo.Lot]()

var _ fifo.LotRepository = (*LotRepo)(nil)

// LotRepo stores lots in fifo_lots.
type LotRepo struct {
	txm *postgres.TxManager
	now func() time.Time
}

// NewLotRepo creates a lot repository.
func NewLotRepo(txm *postgres.TxManager) *LotRepo {
	return &LotRepo{txm: txm, now: time.Now}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LotRepo) Create(ctx context.Context, lot *fifo.Lot) error {
	sql, args, err := builder().
		Insert(lotsTable).
		SetMap(postgres.StructToMap(lot)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepo) GetByID(ctx context.Context, lotID id.ID) (*fifo.Lot, error) {
	sql, args, err := builder().
		Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"id": lotID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot fifo.Lot
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID.String())
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &lot, nil
}

func (r *LotRepo) UpdateBalance(ctx context.Context, lotID id.ID, remaining types.Quantity, status fifo.LotStatus) error {
	return r.update(ctx, lotID, builder().
		Update(lotsTable).
		Set("remaining_quantity", remaining).
		Set("status", squirrel.Expr("CASE WHEN status = ? THEN status ELSE ? END", fifo.LotStatusExpired, status)))
}

func (r *LotRepo) UpdateStatus(ctx context.Context, lotID id.ID, status fifo.LotStatus) error {
	return r.update(ctx, lotID, builder().
		Update(lotsTable).
		Set("status", status))
}

func (r *LotRepo) update(ctx context.Context, lotID id.ID, q squirrel.UpdateBuilder) error {
	sql, args, err := q.
		Set("updated_at", r.now().UTC()).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}
	return nil
}

func (r *LotRepo) List(ctx context.Context, filter fifo.LotFilter) ([]fifo.Lot, error) {
	sql, args, err := listLotsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []fifo.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

func (r *LotRepo) CountByProduct(ctx context.Context, productID id.ID) (int, error) {
	sql, args, err := builder().
		Select("COUNT(*)").
		From(lotsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lots: %w", err)
	}
	return n, nil
}

// listLotsQuery keeps FIFO order: purchase date, then creation, then id.
func listLotsQuery(f fifo.LotFilter) squirrel.SelectBuilder {
	q := builder().
		Select(lotColumns...).
		From(lotsTable).
		OrderBy("purchase_date ASC", "created_at ASC", "id ASC")

	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.PositiveOnly {
		q = q.Where(squirrel.Gt{"remaining_quantity": 0})
	}
	if f.ExpiresFrom != nil {
		q = q.Where(squirrel.GtOrEq{"expiration_date": *f.ExpiresFrom})
	}
	if f.ExpiresTo != nil {
		q = q.Where(squirrel.LtOrEq{"expiration_date": *f.ExpiresTo})
	}
	if f.ExpiresBefore != nil {
		q = q.Where(squirrel.Lt{"expiration_date": *f.ExpiresBefore})
	}
	return q
}
