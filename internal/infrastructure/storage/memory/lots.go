// Package memory provides in-process stores for development mode and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

var _ fifo.LotRepository = (*LotStore)(nil)

// LotStore keeps lots in insertion order.
type LotStore struct {
	mu   sync.RWMutex
	lots []fifo.Lot
	byID map[id.ID]int
	now  func() time.Time
}

func NewLotStore() *LotStore {
	return &LotStore{byID: make(map[id.ID]int), now: time.Now}
}

func (s *LotStore) Create(_ context.Context, lot *fifo.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[lot.ID]; exists {
		return apperror.NewConflict("lot already exists").WithDetail("id", lot.ID.String())
	}
	s.byID[lot.ID] = len(s.lots)
	s.lots = append(s.lots, cloneLot(*lot))
	return nil
}

func (s *LotStore) GetByID(_ context.Context, lotID id.ID) (*fifo.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID.String())
	}
	lot := cloneLot(s.lots[idx])
	return &lot, nil
}

func (s *LotStore) UpdateBalance(_ context.Context, lotID id.ID, remaining types.Quantity, status fifo.LotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[lotID]
	if !ok {
		return apperror.NewNotFound("lot", lotID.String())
	}
	s.lots[idx].RemainingQuantity = remaining
	if s.lots[idx].Status != fifo.LotStatusExpired {
		s.lots[idx].Status = status
	}
	s.lots[idx].UpdatedAt = s.now().UTC()
	return nil
}

func (s *LotStore) UpdateStatus(_ context.Context, lotID id.ID, status fifo.LotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[lotID]
	if !ok {
		return apperror.NewNotFound("lot", lotID.String())
	}
	s.lots[idx].Status = status
	s.lots[idx].UpdatedAt = s.now().UTC()
	return nil
}

// List filters lots and orders them by purchase date. Equal dates keep insertion order.
func (s *LotStore) List(_ context.Context, filter fifo.LotFilter) ([]fifo.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]fifo.Lot, 0)
	for i := range s.lots {
		if filter.Matches(&s.lots[i]) {
			out = append(out, cloneLot(s.lots[i]))
		}
	}
	slices.SortStableFunc(out, func(a, b fifo.Lot) int {
		return a.PurchaseDate.Compare(b.PurchaseDate)
	})
	return out, nil
}

func (s *LotStore) CountByProduct(_ context.Context, productID id.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.lots {
		if s.lots[i].ProductID == productID {
			n++
		}
	}
	return n, nil
}

func cloneLot(l fifo.Lot) fifo.Lot {
	if l.ExpirationDate != nil {
		d := *l.ExpirationDate
		l.ExpirationDate = &d
	}
	l.InvoiceID = cloneString(l.InvoiceID)
	l.ReceiptID = cloneString(l.ReceiptID)
	l.LotNumber = cloneString(l.LotNumber)
	return l
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
