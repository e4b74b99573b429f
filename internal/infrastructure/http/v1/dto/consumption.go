package dto

import (
	"time"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

// ReferenceDTO names the sale, return or adjustment behind a consumption.
type ReferenceDTO struct {
	Kind string `json:"kind" binding:"required,oneof=sale return adjustment"`
	ID   string `json:"id" binding:"required"`
}

func (r ReferenceDTO) ToDomain() fifo.Reference {
	return fifo.Reference{Kind: fifo.ReferenceKind(r.Kind), ID: r.ID}
}

// ConsumeRequest draws stock for a reference.
type ConsumeRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity"`
	Reference ReferenceDTO   `json:"reference" binding:"required"`
	Strict    bool           `json:"strict"`
}

// ConsumptionResponse is one consumption record.
type ConsumptionResponse struct {
	ID        string         `json:"id"`
	Reference ReferenceDTO   `json:"reference"`
	LotID     string         `json:"lotId"`
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitCost  types.Money    `json:"unitCost"`
	TotalCost types.Money    `json:"totalCost"`
	Date      types.Date     `json:"date"`
	CreatedAt time.Time      `json:"createdAt"`
}

func FromConsumption(c fifo.Consumption) ConsumptionResponse {
	return ConsumptionResponse{
		ID:        c.ID.String(),
		Reference: ReferenceDTO{Kind: string(c.Reference.Kind), ID: c.Reference.ID},
		LotID:     c.LotRef(),
		ProductID: c.ProductID.String(),
		Quantity:  c.Quantity,
		UnitCost:  c.UnitCost,
		TotalCost: c.TotalCost,
		Date:      c.Date,
		CreatedAt: c.CreatedAt,
	}
}

// ConsumeResponse summarizes a consume call.
type ConsumeResponse struct {
	TotalCost        types.Money           `json:"totalCost"`
	AvgUnitCost      types.Money           `json:"avgUnitCost"`
	UsedFallback     bool                  `json:"usedFallback"`
	FallbackQuantity types.Quantity        `json:"fallbackQuantity"`
	Consumptions     []ConsumptionResponse `json:"consumptions"`
}

func FromConsumeResult(r *fifo.ConsumeResult) ConsumeResponse {
	return ConsumeResponse{
		TotalCost:        r.TotalCost,
		AvgUnitCost:      r.AvgUnitCost,
		UsedFallback:     r.UsedFallback,
		FallbackQuantity: r.FallbackQuantity,
		Consumptions:     Map(r.Consumptions, FromConsumption),
	}
}

// RevertResponse summarizes a full reversal.
type RevertResponse struct {
	RestoredQuantity types.Quantity `json:"restoredQuantity"`
	SkippedQuantity  types.Quantity `json:"skippedQuantity"`
	LegacyQuantity   types.Quantity `json:"legacyQuantity"`
	RemovedRecords   int            `json:"removedRecords"`
}

func FromRevertResult(r *fifo.RevertResult) RevertResponse {
	return RevertResponse{
		RestoredQuantity: r.RestoredQuantity,
		SkippedQuantity:  r.SkippedQuantity,
		LegacyQuantity:   r.LegacyQuantity,
		RemovedRecords:   r.RemovedRecords,
	}
}

// ReturnRequest gives part of a sale back to stock.
type ReturnRequest struct {
	SaleID    string         `json:"saleId" binding:"required"`
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity"`
}

// ReturnResponse summarizes a partial return.
type ReturnResponse struct {
	Restored       types.Quantity `json:"restored"`
	ReturnedToLots types.Quantity `json:"returnedToLots"`
	AvgUnitCost    types.Money    `json:"avgUnitCost"`
	TotalCost      types.Money    `json:"totalCost"`
}

func FromRestoreResult(r *fifo.RestoreResult) ReturnResponse {
	return ReturnResponse{
		Restored:       r.Restored,
		ReturnedToLots: r.ReturnedToLots,
		AvgUnitCost:    r.AvgUnitCost,
		TotalCost:      r.TotalCost,
	}
}
