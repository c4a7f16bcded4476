// Package store declares interfaces for recording webhook delivery history.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome labels the result of a single delivery attempt.
type Outcome string

// Delivery outcomes persisted in the history table.
const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// DeliveryRecord models one webhook delivery attempt.
type DeliveryRecord struct {
	// ID is the primary key of the history row.
	ID uuid.UUID
	// EventType is the wire event_type of the delivered payload.
	EventType string
	// JobName references the print job, empty for print_ended events.
	JobName string
	// Percent is the reported percent for progress updates, -1 otherwise.
	Percent int
	// AttemptedAt captures when the POST was issued.
	AttemptedAt time.Time
	// Outcome is sent or failed.
	Outcome Outcome
	// StatusCode is the HTTP response code, 0 when no response arrived.
	StatusCode int
	// Error optionally stores the transport failure text.
	Error *string
}

// DeliveryRecorder persists delivery attempts. Recording failures are logged
// by callers and never interrupt delivery.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, rec DeliveryRecord) error
}

// DeliveryRepository extends DeliveryRecorder with the reads the API serves.
type DeliveryRepository interface {
	DeliveryRecorder
	// ListDeliveries returns recent attempts, newest first.
	ListDeliveries(ctx context.Context, limit, offset int) ([]DeliveryRecord, error)
}
