package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which operation keys have already been applied
// so client retries of the same mutation are rejected instead of re-run.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. It reports true when the key
	// was fresh and false when it had been recorded before.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is currently recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}

// IdempotencyConfig controls how lifecycle mutations dedupe retried requests
type IdempotencyConfig struct {
	// TTL is how long a processed key blocks repeats; afterwards the same key
	// is accepted again
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
