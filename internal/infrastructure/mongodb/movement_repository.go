package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lsf-services/warehouse-system/internal/domain"
	storage "github.com/lsf-services/warehouse-system/pkg/mongodb"
)

// MovementRepository reads the append-only movement ledger. Writes happen
// exclusively through StockRecordRepository.Save so every entry lands in the
// same transaction as the balance change it records.
type MovementRepository struct {
	collection *storage.CircuitBreakerCollection
}

// NewMovementRepository creates a read-side repository over the movement
// ledger. Indexes are owned by NewStockRecordRepository.
func NewMovementRepository(client *storage.CircuitBreakerClient) *MovementRepository {
	return &MovementRepository{
		collection: client.Collection(stockMovementsCollection),
	}
}

// FindByKey returns a page of movements for one key, newest first, with the
// total count for pagination. A non-empty movementType narrows both the page
// and the count to entries of that type.
func (r *MovementRepository) FindByKey(ctx context.Context, itemCode, warehouseCode string, movementType domain.MovementType, limit, offset int) ([]domain.MovementEntry, int64, error) {
	filter := bson.M{"item_code": itemCode, "warehouse_code": warehouseCode}
	if movementType != "" {
		filter["movement_type"] = movementType
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "sequence", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []domain.MovementEntry
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, 0, fmt.Errorf("failed to decode movements: %w", err)
	}

	return movements, total, nil
}

// FindAllByKey returns the complete history for one key in ascending
// sequence order, the order replay consumes it in.
func (r *MovementRepository) FindAllByKey(ctx context.Context, itemCode, warehouseCode string) ([]domain.MovementEntry, error) {
	filter := bson.M{"item_code": itemCode, "warehouse_code": warehouseCode}

	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []domain.MovementEntry
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("failed to decode movements: %w", err)
	}

	return movements, nil
}
