package dto

import (
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

// ProductValuationResponse values one product's active lots.
type ProductValuationResponse struct {
	ProductID     string         `json:"productId"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
	AvgCost       types.Money    `json:"avgCost"`
	Lots          []LotResponse  `json:"lots"`
}

func FromProductValuation(v *fifo.ProductValuation) ProductValuationResponse {
	return ProductValuationResponse{
		ProductID:     v.ProductID.String(),
		TotalQuantity: v.TotalQuantity,
		TotalValue:    v.TotalValue,
		AvgCost:       v.AvgCost,
		Lots:          Map(v.Lots, FromLot),
	}
}

// InventoryValuationResponse values all active lots.
type InventoryValuationResponse struct {
	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
	AvgCost       types.Money    `json:"avgCost"`
	ProductCount  int            `json:"productCount"`
	LotCount      int            `json:"lotCount"`
}

func FromInventoryValuation(v *fifo.InventoryValuation) InventoryValuationResponse {
	return InventoryValuationResponse{
		TotalQuantity: v.TotalQuantity,
		TotalValue:    v.TotalValue,
		AvgCost:       v.AvgCost,
		ProductCount:  v.ProductCount,
		LotCount:      v.LotCount,
	}
}

// PeriodCOGSRequest binds the period query.
type PeriodCOGSRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// ProductCOGSResponse is one product's share of a period's COGS.
type ProductCOGSResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Cost      types.Money    `json:"cost"`
}

// PeriodCOGSResponse is the cost of goods sold in a period.
type PeriodCOGSResponse struct {
	From      types.Date            `json:"from"`
	To        types.Date            `json:"to"`
	TotalCost types.Money           `json:"totalCost"`
	Quantity  types.Quantity        `json:"quantity"`
	Products  []ProductCOGSResponse `json:"products"`
}

func FromPeriodCOGS(r *fifo.PeriodCOGS) PeriodCOGSResponse {
	return PeriodCOGSResponse{
		From:      r.From,
		To:        r.To,
		TotalCost: r.TotalCost,
		Quantity:  r.Quantity,
		Products: Map(r.Products, func(p fifo.ProductCOGS) ProductCOGSResponse {
			return ProductCOGSResponse{ProductID: p.ProductID.String(), Quantity: p.Quantity, Cost: p.Cost}
		}),
	}
}

// ShiftCOGSResponse is the cost of goods sold by a shift.
type ShiftCOGSResponse struct {
	ShiftID   string      `json:"shiftId"`
	SaleCount int         `json:"saleCount"`
	TotalCost types.Money `json:"totalCost"`
}

func FromShiftCOGS(r *fifo.ShiftCOGS) ShiftCOGSResponse {
	return ShiftCOGSResponse{ShiftID: r.ShiftID, SaleCount: r.SaleCount, TotalCost: r.TotalCost}
}
