package store

import (
	"context"
	"time"
)

// Reading is one persisted temperature/humidity sample.
//
// Reading is immutable after insertion. The id and timestamp are assigned
// by the store, never by the producer. Temperature and Humidity are
// pointers because producers may omit either field; absent values persist
// as NULL and serialize as JSON null.
type Reading struct {
	// ID is the store-assigned, monotonically increasing row id.
	ID int64 `json:"id"`

	// Temperature in °C. nil if the producer omitted the field.
	Temperature *float64 `json:"temperature"`

	// Humidity in %. nil if the producer omitted the field.
	Humidity *float64 `json:"humidity"`

	// Timestamp is the store-assigned insertion time (UTC).
	// It is the sole ordering key for read-back queries.
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the contract for the durable reading log.
//
// Implementations must be safe for concurrent use. All read-back queries
// order by timestamp descending, with id descending as the tiebreaker for
// identical timestamps (timestamps can collide at the clock's resolution,
// and the storage engine's ordering for equal keys is not otherwise
// guaranteed to be stable).
type Store interface {
	// Insert durably persists a new reading with a store-assigned id and
	// timestamp and returns the complete record. A returned error means
	// nothing was persisted; callers must treat it as fatal for that
	// ingestion attempt.
	Insert(ctx context.Context, temperature, humidity *float64) (Reading, error)

	// ListAll returns every stored reading, most recent first.
	// An empty store yields an empty slice, never an error.
	ListAll(ctx context.Context) ([]Reading, error)

	// Latest returns the most recent reading, or (nil, nil) if the store
	// holds no readings. Absence is not an error.
	Latest(ctx context.Context) (*Reading, error)

	// Close releases the underlying storage handle.
	Close() error
}
