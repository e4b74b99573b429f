package memory

import (
	"context"
	"sync"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalog"
	"lotledger/internal/domain/fifo"
)

var (
	_ catalog.Repository = (*ProductStore)(nil)
	_ fifo.ShiftSales    = (*SalesStore)(nil)
)

// ProductStore holds catalog products.
type ProductStore struct {
	mu       sync.RWMutex
	order    []id.ID
	products map[id.ID]catalog.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[id.ID]catalog.Product)}
}

// Put inserts or replaces a product.
func (s *ProductStore) Put(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
}

func (s *ProductStore) GetByID(_ context.Context, productID id.ID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (s *ProductStore) ListStocked(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.order))
	for _, pid := range s.order {
		if p := s.products[pid]; p.StockQuantity.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// SalesStore maps register shifts to their sales.
type SalesStore struct {
	mu      sync.RWMutex
	byShift map[string][]string
}

func NewSalesStore() *SalesStore {
	return &SalesStore{byShift: make(map[string][]string)}
}

// AddSale records that saleID was rung up during shiftID.
func (s *SalesStore) AddSale(shiftID, saleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byShift[shiftID] = append(s.byShift[shiftID], saleID)
}

func (s *SalesStore) SaleIDsForShift(_ context.Context, shiftID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.byShift[shiftID]...), nil
}
