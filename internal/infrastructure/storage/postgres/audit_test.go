package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/domain/audit"
)

func TestAuditSinkKeepsSmallDetailsPlain(t *testing.T) {
	sink, err := NewAuditSink(nil)
	require.NoError(t, err)

	event := audit.Event{
		Action:     audit.ActionConsumption,
		EntityType: audit.EntityConsumption,
		EntityID:   "c-1",
		Details:    map[string]any{"quantity": "2.0000"},
		OccurredAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	row, err := sink.encode(event)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.Nil(t, row.ChangesCompressed)
	assert.JSONEq(t, `{"quantity":"2.0000"}`, string(row.Changes))

	decoded, err := sink.decode(row)
	require.NoError(t, err)
	assert.Equal(t, event.Details, decoded.Details)
	assert.Equal(t, event.OccurredAt, decoded.OccurredAt)
}

func TestAuditSinkCompressesLargeDetails(t *testing.T) {
	sink, err := NewAuditSink(nil)
	require.NoError(t, err)

	big := strings.Repeat("lot-", DefaultCompressThreshold)
	row, err := sink.encode(audit.Event{
		Action:     audit.ActionReversal,
		EntityType: audit.EntityProduct,
		EntityID:   "p-1",
		Details:    map[string]any{"records": big},
	})
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.Less(t, len(row.ChangesCompressed), len(big))
	assert.False(t, row.CreatedAt.IsZero())

	decoded, err := sink.decode(row)
	require.NoError(t, err)
	assert.Equal(t, big, decoded.Details["records"])
	assert.Equal(t, audit.ActionReversal, decoded.Action)
}
