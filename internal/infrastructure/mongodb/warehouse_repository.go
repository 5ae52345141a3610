package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/cloudevents"
	"github.com/lsf-services/warehouse-system/pkg/kafka"
	storage "github.com/lsf-services/warehouse-system/pkg/mongodb"
	"github.com/lsf-services/warehouse-system/pkg/outbox"
	outboxMongo "github.com/lsf-services/warehouse-system/pkg/outbox/mongodb"
)

const warehousesCollection = "warehouses"

// WarehouseRepository persists warehouses with the same transactional outbox
// discipline as the item repository.
type WarehouseRepository struct {
	collection   *storage.CircuitBreakerCollection
	client       *storage.CircuitBreakerClient
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewWarehouseRepository creates the repository and ensures the unique code
// index.
func NewWarehouseRepository(client *storage.CircuitBreakerClient, eventFactory *cloudevents.EventFactory) (*WarehouseRepository, error) {
	repo := &WarehouseRepository{
		collection:   client.Collection(warehousesCollection),
		client:       client,
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: eventFactory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "warehouse_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	for _, model := range indexes {
		if _, err := repo.collection.CreateIndex(ctx, model); err != nil {
			return nil, fmt.Errorf("failed to create warehouse indexes: %w", err)
		}
	}

	return repo, nil
}

// Save upserts the warehouse and stages its domain events in the outbox
// within one transaction.
func (r *WarehouseRepository) Save(ctx context.Context, warehouse *domain.Warehouse) error {
	warehouse.UpdatedAt = time.Now()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"warehouse_code": warehouse.Code}
		update := bson.M{"$set": warehouse}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save warehouse: %w", err)
		}

		domainEvents := warehouse.GetDomainEvents()
		if len(domainEvents) > 0 {
			subject := cloudevents.WarehouseSubject(warehouse.Code)
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

			for _, event := range domainEvents {
				cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), subject, event)
				cloudEvent.WarehouseCode = warehouse.Code

				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(warehouse.Code, "Warehouse", kafka.Topics.CatalogEvents, cloudEvent)
				if err != nil {
					return fmt.Errorf("failed to create outbox event: %w", err)
				}
				outboxEvents = append(outboxEvents, outboxEvent)
			}

			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		warehouse.ClearDomainEvents()
		return nil
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrWarehouseAlreadyExists
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// FindByCode loads one warehouse by its code.
func (r *WarehouseRepository) FindByCode(ctx context.Context, code string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.collection.FindOne(ctx, bson.M{"warehouse_code": code}).Decode(&warehouse)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to find warehouse: %w", err)
	}
	return &warehouse, nil
}

// List returns a page of warehouses with the total count.
func (r *WarehouseRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Warehouse, int64, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["status"] = domain.StatusActive
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count warehouses: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "warehouse_code", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list warehouses: %w", err)
	}
	defer cursor.Close(ctx)

	var warehouses []*domain.Warehouse
	if err := cursor.All(ctx, &warehouses); err != nil {
		return nil, 0, fmt.Errorf("failed to decode warehouses: %w", err)
	}

	return warehouses, total, nil
}
