// Package fifo implements the FIFO inventory-costing ledger: purchase lots,
// oldest-first consumption, reversal, expiry tracking and cost reporting.
package fifo

import (
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// LegacyNoLot is how a consumption without a real lot is rendered externally.
const LegacyNoLot = "LEGACY_NO_LOT"

// InitialLotNumber tags lots created by the legacy stock migration.
const InitialLotNumber = "INITIAL"

// LotStatus is the lifecycle state of a lot.
//
//	active -> depleted   remaining reached zero through consumption
//	depleted -> active   reversal restored quantity
//	active -> expired    explicit marking, terminal
type LotStatus string

const (
	LotStatusActive   LotStatus = "active"
	LotStatusDepleted LotStatus = "depleted"
	LotStatusExpired  LotStatus = "expired"
)

func (s LotStatus) Valid() bool {
	switch s {
	case LotStatusActive, LotStatusDepleted, LotStatusExpired:
		return true
	}
	return false
}

// Lot is one batch of stock received at a single cost and date.
type Lot struct {
	ID        id.ID   `db:"id" json:"id"`
	ProductID id.ID   `db:"product_id" json:"productId"`
	InvoiceID *string `db:"invoice_id" json:"invoiceId,omitempty"`
	ReceiptID *string `db:"receipt_id" json:"receiptId,omitempty"`
	LotNumber *string `db:"lot_number" json:"lotNumber,omitempty"`

	PurchaseDate   types.Date  `db:"purchase_date" json:"purchaseDate"`
	ExpirationDate *types.Date `db:"expiration_date" json:"expirationDate,omitempty"`

	OriginalQuantity  types.Quantity `db:"original_quantity" json:"originalQuantity"`
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	// UnitCost is tax-exclusive; UnitCostIncTax is derived from it and cached.
	UnitCost       types.Money `db:"unit_cost" json:"unitCost"`
	UnitCostIncTax types.Money `db:"unit_cost_inc_tax" json:"unitCostIncTax"`
	TaxRate        types.Rate  `db:"tax_rate" json:"taxRate"`

	Status    LotStatus `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAvailable reports whether the lot can be drawn from.
func (l *Lot) IsAvailable() bool {
	return l.Status == LotStatusActive && l.RemainingQuantity.IsPositive()
}

// Value is the remaining quantity at tax-exclusive cost.
func (l *Lot) Value() types.Money {
	return types.Cost(l.RemainingQuantity, l.UnitCost)
}

// ReferenceKind names the source document type of a consumption.
type ReferenceKind string

const (
	ReferenceSale       ReferenceKind = "sale"
	ReferenceReturn     ReferenceKind = "return"
	ReferenceAdjustment ReferenceKind = "adjustment"
)

// Reference identifies the single sale, return or adjustment a consumption belongs to.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   string        `json:"id"`
}

func SaleRef(saleID string) Reference { return Reference{Kind: ReferenceSale, ID: saleID} }

func ReturnRef(returnID string) Reference { return Reference{Kind: ReferenceReturn, ID: returnID} }

func AdjustmentRef(adjustmentID string) Reference {
	return Reference{Kind: ReferenceAdjustment, ID: adjustmentID}
}

// Validate checks that the kind is known and the id is set.
func (r Reference) Validate() error {
	switch r.Kind {
	case ReferenceSale, ReferenceReturn, ReferenceAdjustment:
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown reference kind %q", r.Kind))
	}
	if r.ID == "" {
		return apperror.NewValidation("reference id is required")
	}
	return nil
}

func (r Reference) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Consumption is one withdrawal from a lot, or from no lot at all when
// LotID is nil and the cost came from the product's average cost.
type Consumption struct {
	ID        id.ID          `json:"id"`
	Reference Reference      `json:"reference"`
	LotID     *id.ID         `json:"-"`
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`

	// UnitCost is copied from the lot when the record is created and never recomputed.
	UnitCost  types.Money `json:"unitCost"`
	TotalCost types.Money `json:"totalCost"`

	Date      types.Date `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsLegacy reports whether the record was not drawn from a real lot.
func (c *Consumption) IsLegacy() bool {
	return c.LotID == nil
}

// LotRef returns the lot id, or LegacyNoLot.
func (c *Consumption) LotRef() string {
	if c.LotID == nil {
		return LegacyNoLot
	}
	return c.LotID.String()
}
