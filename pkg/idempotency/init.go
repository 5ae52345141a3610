package idempotency

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// InitializeIndexes creates the idempotency indexes. Call once at startup
// before serving requests.
func InitializeIndexes(ctx context.Context, db *mongo.Database) error {
	return NewMongoKeyRepository(db).EnsureIndexes(ctx)
}
