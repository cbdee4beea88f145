package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks externally-assigned notification IDs so that a
// redelivered payment callback is applied at most once
type IdempotencyStore interface {
	// MarkProcessed marks an ID as processed with a TTL. Returns true if
	// the ID was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// IsProcessed checks whether an ID has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)
	// Close releases any resources held by the store
	Close() error
}
