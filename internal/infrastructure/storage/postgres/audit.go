package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which details are compressed.
const DefaultCompressThreshold = 10 * 1024

var _ audit.Sink = (*AuditSink)(nil)

// auditRow mirrors a sys_audit row.
type auditRow struct {
	ID                id.ID           `db:"id"`
	Action            string          `db:"action"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	UserID            string          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditSink writes ledger audit events into sys_audit.
type AuditSink struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditSink creates a sink compressing details above DefaultCompressThreshold.
func NewAuditSink(txManager *TxManager) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditSink{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Record inserts one event.
func (s *AuditSink) Record(ctx context.Context, event audit.Event) error {
	row, err := s.encode(event)
	if err != nil {
		return err
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, action, entity_type, entity_id, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		row.ID, row.Action, row.EntityType, row.EntityID, row.UserID,
		row.Changes, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// History returns the newest events for an entity, decompressing stored details.
func (s *AuditSink) History(ctx context.Context, entityType, entityID string, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, action, entity_type, entity_id, user_id,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var r auditRow
		if err := rows.Scan(
			&r.ID, &r.Action, &r.EntityType, &r.EntityID, &r.UserID,
			&r.Changes, &r.ChangesCompressed, &r.CompressionAlgo, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}

		event, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (s *AuditSink) encode(event audit.Event) (auditRow, error) {
	row := auditRow{
		ID:              id.New(),
		Action:          string(event.Action),
		EntityType:      event.EntityType,
		EntityID:        event.EntityID,
		UserID:          event.UserID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       event.OccurredAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if len(event.Details) == 0 {
		return row, nil
	}

	changes, err := json.Marshal(event.Details)
	if err != nil {
		return row, fmt.Errorf("marshal audit details: %w", err)
	}

	if len(changes) > s.compressThreshold {
		row.ChangesCompressed = s.encoder.EncodeAll(changes, nil)
		row.CompressionAlgo = CompressionZstd
		return row, nil
	}

	row.Changes = changes
	return row, nil
}

func (s *AuditSink) decode(r auditRow) (audit.Event, error) {
	event := audit.Event{
		Action:     audit.Action(r.Action),
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		UserID:     r.UserID,
		OccurredAt: r.CreatedAt,
	}

	changes := []byte(r.Changes)
	if r.CompressionAlgo == CompressionZstd && len(r.ChangesCompressed) > 0 {
		decompressed, err := s.decoder.DecodeAll(r.ChangesCompressed, nil)
		if err != nil {
			return event, fmt.Errorf("decompress audit changes: %w", err)
		}
		changes = decompressed
	}

	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &event.Details); err != nil {
			return event, fmt.Errorf("unmarshal audit changes: %w", err)
		}
	}
	return event, nil
}
