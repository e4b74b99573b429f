// Package idempotency defines the contract for replaying mutating HTTP requests
// that were retried with the same X-Idempotency-Key.
package idempotency

import (
	"context"
	"net/http"
)

// Status is the state of a keyed operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Replay is a cached HTTP response.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
//
// AcquireKey returns (nil, nil) when the caller owns the key, a Replay when the
// operation already finished, and an AppError when the key is in flight or was
// used for a different request.
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// NewReplay fills defaults for records written without status or content type.
func NewReplay(statusCode int, contentType string, body []byte) *Replay {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	if contentType == "" && len(body) > 0 {
		contentType = "application/json"
	}
	return &Replay{StatusCode: statusCode, ContentType: contentType, Body: body}
}
