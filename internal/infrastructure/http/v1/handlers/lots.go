package handlers

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// LotHandler serves lot intake, cost lookups and expiry.
type LotHandler struct {
	*BaseHandler
	ledger  *fifo.Ledger
	history audit.Reader
}

// NewLotHandler creates a lot handler. history may be nil.
func NewLotHandler(base *BaseHandler, ledger *fifo.Ledger, history audit.Reader) *LotHandler {
	return &LotHandler{BaseHandler: base, ledger: ledger, history: history}
}

// Create handles POST /lots.
func (h *LotHandler) Create(c *gin.Context) {
	var req dto.CreateLotRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseID(c, "productId", req.ProductID)
	if !ok {
		return
	}

	lot, err := h.ledger.Lots.AddLot(c.Request.Context(), productID, req.Quantity, req.UnitCost, req.TaxRate, req.Options())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromLot(*lot))
}

// ActiveLots handles GET /products/:id/lots.
func (h *LotHandler) ActiveLots(c *gin.Context) {
	productID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}

	lots, err := h.ledger.Lots.GetActiveLots(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	List(h.BaseHandler, c, dto.Map(lots, dto.FromLot))
}

// Cost handles GET /products/:id/cost.
func (h *LotHandler) Cost(c *gin.Context) {
	productID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	ctx := c.Request.Context()

	fifoCost, err := h.ledger.Lots.GetFIFOCost(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	avgCost, err := h.ledger.Lots.GetWeightedAverageCost(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	available, err := h.ledger.Lots.GetAvailableQuantity(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ProductCostResponse{
		ProductID:           productID.String(),
		FIFOCost:            fifoCost,
		WeightedAverageCost: avgCost,
		AvailableQuantity:   available,
	})
}

// Expire handles POST /lots/:id/expire.
func (h *LotHandler) Expire(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}

	if err := h.ledger.Expiration.MarkLotExpired(c.Request.Context(), lotID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.IDResponse{ID: lotID.String()})
}

// Expiring handles GET /lots/expiring?days=N.
func (h *LotHandler) Expiring(c *gin.Context) {
	lots, err := h.ledger.Expiration.GetExpiringLots(c.Request.Context(), h.ParseIntQuery(c, "days", fifo.DefaultExpiryWindow))
	if err != nil {
		h.Error(c, err)
		return
	}

	List(h.BaseHandler, c, dto.Map(lots, dto.FromLot))
}

// Expired handles GET /lots/expired.
func (h *LotHandler) Expired(c *gin.Context) {
	lots, err := h.ledger.Expiration.GetExpiredLots(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	List(h.BaseHandler, c, dto.Map(lots, dto.FromLot))
}

// Sweep handles POST /lots/expire-overdue.
func (h *LotHandler) Sweep(c *gin.Context) {
	n, err := h.ledger.Expiration.ExpireOverdueLots(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ExpireSweepResponse{Expired: n})
}

// History handles GET /lots/:id/history.
func (h *LotHandler) History(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	if h.history == nil {
		List(h.BaseHandler, c, []dto.AuditEventResponse{})
		return
	}

	events, err := h.history.History(c.Request.Context(), audit.EntityLot, lotID.String(), h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}

	List(h.BaseHandler, c, dto.Map(events, dto.FromAuditEvent))
}

// MigrateLegacyStock handles POST /admin/migrations/initial-lots.
func (h *LotHandler) MigrateLegacyStock(c *gin.Context) {
	result, err := h.ledger.Migrator.CreateInitialLotsForExistingProducts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMigration(result))
}
