package handlers

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/http/v1/dto"
	"lotledger/internal/infrastructure/lock"
)

// ConsumptionHandler serves consumption, reversal and returns. Every mutation
// runs under the per-product lock of each product it touches.
type ConsumptionHandler struct {
	*BaseHandler
	ledger *fifo.Ledger
	locker lock.Locker
}

// NewConsumptionHandler creates a consumption handler.
func NewConsumptionHandler(base *BaseHandler, ledger *fifo.Ledger, locker lock.Locker) *ConsumptionHandler {
	return &ConsumptionHandler{BaseHandler: base, ledger: ledger, locker: locker}
}

// Consume handles POST /consumptions.
func (h *ConsumptionHandler) Consume(c *gin.Context) {
	var req dto.ConsumeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseID(c, "productId", req.ProductID)
	if !ok {
		return
	}

	var result *fifo.ConsumeResult
	err := lock.Do(c.Request.Context(), h.locker, lock.ProductKey(productID.String()), func(ctx context.Context) error {
		var err error
		result, err = h.ledger.Consumption.Consume(ctx, productID, req.Quantity, req.Reference.ToDomain(),
			fifo.ConsumeOptions{Strict: req.Strict})
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromConsumeResult(result))
}

// Get handles GET /consumptions/:kind/:ref.
func (h *ConsumptionHandler) Get(c *gin.Context) {
	ref := fifo.Reference{Kind: fifo.ReferenceKind(c.Param("kind")), ID: c.Param("ref")}

	records, err := h.ledger.Reporter.GetConsumptions(c.Request.Context(), ref)
	if err != nil {
		h.Error(c, err)
		return
	}

	List(h.BaseHandler, c, dto.Map(records, dto.FromConsumption))
}

// Revert handles DELETE /consumptions/:kind/:ref.
func (h *ConsumptionHandler) Revert(c *gin.Context) {
	ref := fifo.Reference{Kind: fifo.ReferenceKind(c.Param("kind")), ID: c.Param("ref")}
	ctx := c.Request.Context()

	records, err := h.ledger.Reporter.GetConsumptions(ctx, ref)
	if err != nil {
		h.Error(c, err)
		return
	}

	var result *fifo.RevertResult
	err = h.withProducts(ctx, productsOf(records), func(ctx context.Context) error {
		var err error
		result, err = h.ledger.Reversal.RevertConsumption(ctx, ref)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRevertResult(result))
}

// Return handles POST /returns.
func (h *ConsumptionHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseID(c, "productId", req.ProductID)
	if !ok {
		return
	}

	var result *fifo.RestoreResult
	err := lock.Do(c.Request.Context(), h.locker, lock.ProductKey(productID.String()), func(ctx context.Context) error {
		var err error
		result, err = h.ledger.Reversal.RestoreConsumptionForReturn(ctx, req.SaleID, productID, req.Quantity)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRestoreResult(result))
}

// withProducts takes the product locks in sorted order so concurrent
// reversals cannot deadlock each other.
func (h *ConsumptionHandler) withProducts(ctx context.Context, productIDs []string, fn func(ctx context.Context) error) error {
	if len(productIDs) == 0 {
		return fn(ctx)
	}
	return lock.Do(ctx, h.locker, lock.ProductKey(productIDs[0]), func(ctx context.Context) error {
		return h.withProducts(ctx, productIDs[1:], fn)
	})
}

func productsOf(records []fifo.Consumption) []string {
	seen := make(map[id.ID]struct{}, len(records))
	var out []string
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		out = append(out, r.ProductID.String())
	}
	slices.Sort(out)
	return out
}
