package memory

import (
	"context"
	"slices"
	"sync"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

var _ fifo.ConsumptionRepository = (*ConsumptionStore)(nil)

// ConsumptionStore keeps consumption records in insertion order.
type ConsumptionStore struct {
	mu      sync.RWMutex
	records []fifo.Consumption
}

func NewConsumptionStore() *ConsumptionStore {
	return &ConsumptionStore{}
}

func (s *ConsumptionStore) Create(_ context.Context, c *fifo.Consumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return apperror.NewConflict("consumption already exists").WithDetail("id", c.ID.String())
	}
	s.records = append(s.records, cloneConsumption(*c))
	return nil
}

// List orders by creation time; equal timestamps keep insertion order.
func (s *ConsumptionStore) List(_ context.Context, filter fifo.ConsumptionFilter) ([]fifo.Consumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]fifo.Consumption, 0)
	for i := range s.records {
		if filter.Matches(&s.records[i]) {
			out = append(out, cloneConsumption(s.records[i]))
		}
	}
	slices.SortStableFunc(out, func(a, b fifo.Consumption) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *ConsumptionStore) UpdateQuantity(_ context.Context, consumptionID id.ID, quantity types.Quantity, totalCost types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(consumptionID)
	if idx < 0 {
		return apperror.NewNotFound("consumption", consumptionID.String())
	}
	s.records[idx].Quantity = quantity
	s.records[idx].TotalCost = totalCost
	return nil
}

func (s *ConsumptionStore) Delete(_ context.Context, consumptionID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(consumptionID)
	if idx < 0 {
		return apperror.NewNotFound("consumption", consumptionID.String())
	}
	s.records = slices.Delete(s.records, idx, idx+1)
	return nil
}

// Len returns the number of stored records.
func (s *ConsumptionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *ConsumptionStore) indexOf(consumptionID id.ID) int {
	return slices.IndexFunc(s.records, func(c fifo.Consumption) bool {
		return c.ID == consumptionID
	})
}

func cloneConsumption(c fifo.Consumption) fifo.Consumption {
	if c.LotID != nil {
		lotID := *c.LotID
		c.LotID = &lotID
	}
	return c
}
