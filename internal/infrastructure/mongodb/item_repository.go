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

const itemsCollection = "items"

// ItemRepository persists catalog items. Saves run in a transaction with the
// outbox so catalog events publish if and only if the item change committed.
type ItemRepository struct {
	collection   *storage.CircuitBreakerCollection
	client       *storage.CircuitBreakerClient
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewItemRepository creates the repository and ensures the unique code index.
func NewItemRepository(client *storage.CircuitBreakerClient, eventFactory *cloudevents.EventFactory) (*ItemRepository, error) {
	repo := &ItemRepository{
		collection:   client.Collection(itemsCollection),
		client:       client,
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: eventFactory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "item_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	for _, model := range indexes {
		if _, err := repo.collection.CreateIndex(ctx, model); err != nil {
			return nil, fmt.Errorf("failed to create item indexes: %w", err)
		}
	}

	return repo, nil
}

// Save upserts the item and stages its domain events in the outbox within
// one transaction.
func (r *ItemRepository) Save(ctx context.Context, item *domain.Item) error {
	item.UpdatedAt = time.Now()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"item_code": item.Code}
		update := bson.M{"$set": item}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}

		domainEvents := item.GetDomainEvents()
		if len(domainEvents) > 0 {
			subject := cloudevents.ItemSubject(item.Code)
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

			for _, event := range domainEvents {
				cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), subject, event)
				cloudEvent.ItemCode = item.Code

				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(item.Code, "Item", kafka.Topics.CatalogEvents, cloudEvent)
				if err != nil {
					return fmt.Errorf("failed to create outbox event: %w", err)
				}
				outboxEvents = append(outboxEvents, outboxEvent)
			}

			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		item.ClearDomainEvents()
		return nil
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrItemAlreadyExists
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// FindByCode loads one item by its code.
func (r *ItemRepository) FindByCode(ctx context.Context, code string) (*domain.Item, error) {
	var item domain.Item
	err := r.collection.FindOne(ctx, bson.M{"item_code": code}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

// List returns a page of items with the total count. Inactive items are
// hidden unless asked for.
func (r *ItemRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Item, int64, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["status"] = domain.StatusActive
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "item_code", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode items: %w", err)
	}

	return items, total, nil
}
