package fifo

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// LotRepository persists lots.
type LotRepository interface {
	// Create inserts a new lot.
	Create(ctx context.Context, lot *Lot) error

	// GetByID returns apperror NOT_FOUND when the lot does not exist.
	GetByID(ctx context.Context, lotID id.ID) (*Lot, error)

	// UpdateBalance sets remaining quantity and status in one write.
	// A lot already expired in storage stays expired whatever status is passed.
	UpdateBalance(ctx context.Context, lotID id.ID, remaining types.Quantity, status LotStatus) error

	UpdateStatus(ctx context.Context, lotID id.ID, status LotStatus) error

	// List returns lots ordered by purchase date, then creation order.
	List(ctx context.Context, filter LotFilter) ([]Lot, error)

	// CountByProduct counts lots of the product in any status.
	CountByProduct(ctx context.Context, productID id.ID) (int, error)
}

// LotFilter narrows List. Zero value returns every lot.
type LotFilter struct {
	ProductID *id.ID
	Status    *LotStatus

	// PositiveOnly keeps lots with remaining quantity above zero.
	PositiveOnly bool

	// ExpiresFrom and ExpiresTo bound the expiration date inclusively.
	ExpiresFrom *types.Date
	ExpiresTo   *types.Date

	// ExpiresBefore keeps lots whose expiration date is strictly earlier.
	ExpiresBefore *types.Date
}

// Matches applies the filter to a single lot. In-memory stores use it;
// SQL stores translate the same fields to WHERE clauses.
func (f LotFilter) Matches(l *Lot) bool {
	if f.ProductID != nil && l.ProductID != *f.ProductID {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	if f.PositiveOnly && !l.RemainingQuantity.IsPositive() {
		return false
	}
	if f.ExpiresFrom != nil || f.ExpiresTo != nil || f.ExpiresBefore != nil {
		if l.ExpirationDate == nil || l.ExpirationDate.IsZero() {
			return false
		}
		exp := *l.ExpirationDate
		if f.ExpiresFrom != nil && exp.Before(*f.ExpiresFrom) {
			return false
		}
		if f.ExpiresTo != nil && exp.After(*f.ExpiresTo) {
			return false
		}
		if f.ExpiresBefore != nil && !exp.Before(*f.ExpiresBefore) {
			return false
		}
	}
	return true
}

// ConsumptionRepository persists consumption records.
type ConsumptionRepository interface {
	Create(ctx context.Context, c *Consumption) error

	// List returns records ordered by creation time, oldest first.
	List(ctx context.Context, filter ConsumptionFilter) ([]Consumption, error)

	// UpdateQuantity shrinks a record during a partial return.
	UpdateQuantity(ctx context.Context, consumptionID id.ID, quantity types.Quantity, totalCost types.Money) error

	Delete(ctx context.Context, consumptionID id.ID) error
}

// ConsumptionFilter narrows List. Zero value returns every record.
type ConsumptionFilter struct {
	Reference *Reference
	ProductID *id.ID

	// SaleIDs keeps records of any of these sales. An empty non-nil slice matches nothing.
	SaleIDs []string

	FromDate *types.Date
	ToDate   *types.Date
}

// Matches applies the filter to a single record.
func (f ConsumptionFilter) Matches(c *Consumption) bool {
	if f.Reference != nil && c.Reference != *f.Reference {
		return false
	}
	if f.ProductID != nil && c.ProductID != *f.ProductID {
		return false
	}
	if f.SaleIDs != nil {
		if c.Reference.Kind != ReferenceSale {
			return false
		}
		found := false
		for _, saleID := range f.SaleIDs {
			if saleID == c.Reference.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.FromDate != nil && c.Date.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && c.Date.After(*f.ToDate) {
		return false
	}
	return true
}

// ShiftSales resolves the sales recorded during a cash-register shift.
type ShiftSales interface {
	SaleIDsForShift(ctx context.Context, shiftID string) ([]string, error)
}
