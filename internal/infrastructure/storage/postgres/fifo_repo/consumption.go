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

const consumptionsTable = "fifo_consumptions"

// consumptionRow spreads the reference over one nullable column per kind.
type consumptionRow struct {
	ID           id.ID          `db:"id"`
	SaleID       *string        `db:"sale_id"`
	ReturnID     *string        `db:"return_id"`
	AdjustmentID *string        `db:"adjustment_id"`
	LotID        *id.ID         `db:"lot_id"`
	ProductID    id.ID          `db:"product_id"`
	Quantity     types.Quantity `db:"quantity"`
	UnitCost     types.Money    `db:"unit_cost"`
	TotalCost    types.Money    `db:"total_cost"`
	ConsumedOn   types.Date     `db:"consumed_on"`
	CreatedAt    time.Time      `db:"created_at"`
}

var consumptionColumns = postgres.ExtractDBColumns[consumptionRow]()

var referenceColumns = map[fifo.ReferenceKind]string{
	fifo.ReferenceSale:       "sale_id",
	fifo.ReferenceReturn:     "return_id",
	fifo.ReferenceAdjustment: "adjustment_id",
}

func toRow(c *fifo.Consumption) consumptionRow {
	row := consumptionRow{
		ID:         c.ID,
		LotID:      c.LotID,
		ProductID:  c.ProductID,
		Quantity:   c.Quantity,
		UnitCost:   c.UnitCost,
		TotalCost:  c.TotalCost,
		ConsumedOn: c.Date,
		CreatedAt:  c.CreatedAt,
	}
	refID := c.Reference.ID
	switch c.Reference.Kind {
	case fifo.ReferenceSale:
		row.SaleID = &refID
	case fifo.ReferenceReturn:
		row.ReturnID = &refID
	case fifo.ReferenceAdjustment:
		row.AdjustmentID = &refID
	}
	return row
}

func (r consumptionRow) toDomain() fifo.Consumption {
	c := fifo.Consumption{
		ID:        r.ID,
		LotID:     r.LotID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitCost:  r.UnitCost,
		TotalCost: r.TotalCost,
		Date:      r.ConsumedOn,
		CreatedAt: r.CreatedAt,
	}
	switch {
	case r.SaleID != nil:
		c.Reference = fifo.SaleRef(*r.SaleID)
	case r.ReturnID != nil:
		c.Reference = fifo.ReturnRef(*r.ReturnID)
	case r.AdjustmentID != nil:
		c.Reference = fifo.AdjustmentRef(*r.AdjustmentID)
	}
	return c
}

var _ fifo.ConsumptionRepository = (*ConsumptionRepo)(nil)

// ConsumptionRepo stores consumption records in fifo_consumptions.
type ConsumptionRepo struct {
	txm *postgres.TxManager
}

// NewConsumptionRepo creates a consumption repository.
func NewConsumptionRepo(txm *postgres.TxManager) *ConsumptionRepo {
	return &ConsumptionRepo{txm: txm}
}

func (r *ConsumptionRepo) Create(ctx context.Context, c *fifo.Consumption) error {
	if err := c.Reference.Validate(); err != nil {
		return err
	}

	sql, args, err := builder().
		Insert(consumptionsTable).
		SetMap(postgres.StructToMap(toRow(c))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert consumption: %w", err)
	}
	return nil
}

func (r *ConsumptionRepo) List(ctx context.Context, filter fifo.ConsumptionFilter) ([]fifo.Consumption, error) {
	// An empty sale set cannot match; skip the round trip.
	if filter.SaleIDs != nil && len(filter.SaleIDs) == 0 {
		return nil, nil
	}

	sql, args, err := listConsumptionsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []consumptionRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list consumptions: %w", err)
	}

	out := make([]fifo.Consumption, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *ConsumptionRepo) UpdateQuantity(ctx context.Context, consumptionID id.ID, quantity types.Quantity, totalCost types.Money) error {
	sql, args, err := builder().
		Update(consumptionsTable).
		Set("quantity", quantity).
		Set("total_cost", totalCost).
		Where(squirrel.Eq{"id": consumptionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update consumption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("consumption", consumptionID.String())
	}
	return nil
}

func (r *ConsumptionRepo) Delete(ctx context.Context, consumptionID id.ID) error {
	sql, args, err := builder().
		Delete(consumptionsTable).
		Where(squirrel.Eq{"id": consumptionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete consumption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("consumption", consumptionID.String())
	}
	return nil
}

func listConsumptionsQuery(f fifo.ConsumptionFilter) squirrel.SelectBuilder {
	q := builder().
		Select(consumptionColumns...).
		From(consumptionsTable).
		OrderBy("created_at ASC", "id ASC")

	if f.Reference != nil {
		q = q.Where(squirrel.Eq{referenceColumns[f.Reference.Kind]: f.Reference.ID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if len(f.SaleIDs) > 0 {
		q = q.Where(squirrel.Eq{"sale_id": f.SaleIDs})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"consumed_on": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"consumed_on": *f.ToDate})
	}
	return q
}
