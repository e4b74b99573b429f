package handlers

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// ValuationHandler serves inventory valuation and COGS reports.
type ValuationHandler struct {
	*BaseHandler
	reporter *fifo.Reporter
}

// NewValuationHandler creates a valuation handler.
func NewValuationHandler(base *BaseHandler, reporter *fifo.Reporter) *ValuationHandler {
	return &ValuationHandler{BaseHandler: base, reporter: reporter}
}

// Total handles GET /valuation.
func (h *ValuationHandler) Total(c *gin.Context) {
	v, err := h.reporter.GetTotalInventoryValuation(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInventoryValuation(v))
}

// Product handles GET /valuation/products/:id.
func (h *ValuationHandler) Product(c *gin.Context) {
	productID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}

	v, err := h.reporter.GetProductInventoryValuation(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProductValuation(v))
}

// PeriodCOGS handles GET /cogs?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *ValuationHandler) PeriodCOGS(c *gin.Context) {
	var req dto.PeriodCOGSRequest
	if !h.BindQuery(c, &req) {
		return
	}
	from, ok := h.ParseDate(c, "from", req.From)
	if !ok {
		return
	}
	to, ok := h.ParseDate(c, "to", req.To)
	if !ok {
		return
	}

	r, err := h.reporter.GetCOGSForPeriod(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPeriodCOGS(r))
}

// ShiftCOGS handles GET /cogs/shifts/:id.
func (h *ValuationHandler) ShiftCOGS(c *gin.Context) {
	r, err := h.reporter.GetCOGSForShift(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromShiftCOGS(r))
}
