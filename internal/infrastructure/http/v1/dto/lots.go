package dto

import (
	"time"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/fifo"
)

// CreateLotRequest receives stock into a new lot.
type CreateLotRequest struct {
	ProductID      string         `json:"productId" binding:"required,uuid"`
	Quantity       types.Quantity `json:"quantity"`
	UnitCost       types.Money    `json:"unitCost"`
	TaxRate        types.Rate     `json:"taxRate"`
	InvoiceID      *string        `json:"invoiceId,omitempty"`
	ReceiptID      *string        `json:"receiptId,omitempty"`
	LotNumber      *string        `json:"lotNumber,omitempty"`
	PurchaseDate   *types.Date    `json:"purchaseDate,omitempty"`
	ExpirationDate *types.Date    `json:"expirationDate,omitempty"`
}

// Options converts the optional fields.
func (r *CreateLotRequest) Options() fifo.AddLotOptions {
	return fifo.AddLotOptions{
		InvoiceID:      r.InvoiceID,
		ReceiptID:      r.ReceiptID,
		LotNumber:      r.LotNumber,
		ExpirationDate: r.ExpirationDate,
		PurchaseDate:   r.PurchaseDate,
	}
}

// LotResponse is a lot as returned by the API.
type LotResponse struct {
	ID                string         `json:"id"`
	ProductID         string         `json:"productId"`
	InvoiceID         *string        `json:"invoiceId,omitempty"`
	ReceiptID         *string        `json:"receiptId,omitempty"`
	LotNumber         *string        `json:"lotNumber,omitempty"`
	PurchaseDate      types.Date     `json:"purchaseDate"`
	ExpirationDate    *types.Date    `json:"expirationDate,omitempty"`
	OriginalQuantity  types.Quantity `json:"originalQuantity"`
	RemainingQuantity types.Quantity `json:"remainingQuantity"`
	UnitCost          types.Money    `json:"unitCost"`
	UnitCostIncTax    types.Money    `json:"unitCostIncTax"`
	TaxRate           types.Rate     `json:"taxRate"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
}

func FromLot(l fifo.Lot) LotResponse {
	return LotResponse{
		ID:                l.ID.String(),
		ProductID:         l.ProductID.String(),
		InvoiceID:         l.InvoiceID,
		ReceiptID:         l.ReceiptID,
		LotNumber:         l.LotNumber,
		PurchaseDate:      l.PurchaseDate,
		ExpirationDate:    l.ExpirationDate,
		OriginalQuantity:  l.OriginalQuantity,
		RemainingQuantity: l.RemainingQuantity,
		UnitCost:          l.UnitCost,
		UnitCostIncTax:    l.UnitCostIncTax,
		TaxRate:           l.TaxRate,
		Status:            string(l.Status),
		CreatedAt:         l.CreatedAt,
	}
}

// ProductCostResponse summarizes a product's lot costs.
type ProductCostResponse struct {
	ProductID           string         `json:"productId"`
	FIFOCost            types.Money    `json:"fifoCost"`
	WeightedAverageCost types.Money    `json:"weightedAverageCost"`
	AvailableQuantity   types.Quantity `json:"availableQuantity"`
}

// ExpireSweepResponse reports how many lots a sweep expired.
type ExpireSweepResponse struct {
	Expired int `json:"expired"`
}

// MigrationResponse reports the legacy stock migration.
type MigrationResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

func FromMigration(r *fifo.MigrationResult) MigrationResponse {
	return MigrationResponse{Created: r.Created, Skipped: r.Skipped}
}

// AuditEventResponse is one audit history entry.
type AuditEventResponse struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	UserID     string         `json:"userId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func FromAuditEvent(e audit.Event) AuditEventResponse {
	return AuditEventResponse{
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Details:    e.Details,
		OccurredAt: e.OccurredAt,
	}
}
