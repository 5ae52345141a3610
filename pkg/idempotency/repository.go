package idempotency

import "context"

// KeyRepository stores idempotency keys. Implementations must make
// AcquireLock atomic; two concurrent requests with the same key must see
// exactly one isNew result.
type KeyRepository interface {
	// AcquireLock claims the key for the calling request, creating the
	// record when it does not exist. It returns the stored record and
	// whether this call created it.
	AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)

	// ReleaseLock clears the lock so a later retry can claim the key
	// again. Called when a request fails without a storable response.
	ReleaseLock(ctx context.Context, keyID string) error

	// StoreResponse marks the key completed and stores the response to
	// replay on retries.
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error

	// EnsureIndexes creates the indexes the repository depends on. Called
	// once at startup.
	EnsureIndexes(ctx context.Context) error
}
