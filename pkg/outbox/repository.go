package outbox

import "context"

// Repository is the store the publisher drains. Staging events into the
// store happens inside the owning aggregate's save transaction, so writing
// is not part of this interface.
type Repository interface {
	// FindUnpublished returns events that have not reached the broker and
	// are still below their retry limit, oldest first.
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished records that the event reached the broker.
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry counts a failed delivery attempt and keeps its error.
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
}
