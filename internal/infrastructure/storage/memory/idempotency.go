package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

type idempotencyEntry struct {
	userID      string
	operation   string
	requestHash string
	status      idempotency.Status
	replay      *idempotency.Replay
	expiresAt   time.Time
}

// IdempotencyStore keeps keys in process memory. Used when STORAGE=memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*idempotencyEntry
}

// NewIdempotencyStore creates a store whose keys live for ttl.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, now: time.Now, entries: make(map[string]*idempotencyEntry)}
}

func (s *IdempotencyStore) AcquireKey(_ context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		s.entries[key] = &idempotencyEntry{
			userID:      userID,
			operation:   operation,
			requestHash: requestHash,
			status:      idempotency.StatusPending,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if e.userID != userID || e.operation != operation || e.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if e.status == idempotency.StatusPending {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return e.replay, nil
}

func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, idempotency.StatusSuccess, statusCode, contentType, response)
}

func (s *IdempotencyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, idempotency.StatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(key string, status idempotency.Status, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		body = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	e.status = status
	e.replay = idempotency.NewReplay(statusCode, contentType, body)
	return nil
}
