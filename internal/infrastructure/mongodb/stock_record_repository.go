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

const (
	stockRecordsCollection   = "stock_records"
	stockMovementsCollection = "stock_movements"
	countersCollection       = "counters"

	defaultLowStockLimit = 50
)

// StockRecordRepository persists stock records together with their movement
// entries and outbox events in a single MongoDB transaction. Concurrency
// control is optimistic: the update filter includes the version the caller
// loaded, and a non-match surfaces as ErrConcurrentModification so the
// service layer can reload and retry.
type StockRecordRepository struct {
	collection   *storage.CircuitBreakerCollection
	movements    *storage.CircuitBreakerCollection
	counters     *storage.CircuitBreakerCollection
	client       *storage.CircuitBreakerClient
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewStockRecordRepository creates the repository and ensures its indexes.
func NewStockRecordRepository(client *storage.CircuitBreakerClient, eventFactory *cloudevents.EventFactory) (*StockRecordRepository, error) {
	repo := &StockRecordRepository{
		collection:   client.Collection(stockRecordsCollection),
		movements:    client.Collection(stockMovementsCollection),
		counters:     client.Collection(countersCollection),
		client:       client,
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: eventFactory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create stock record indexes: %w", err)
	}
	if err := repo.outboxRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create outbox indexes: %w", err)
	}

	return repo, nil
}

func (r *StockRecordRepository) ensureIndexes(ctx context.Context) error {
	recordIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "item_code", Value: 1},
				{Key: "warehouse_code", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "warehouse_code", Value: 1}, {Key: "active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}
	for _, model := range recordIndexes {
		if _, err := r.collection.CreateIndex(ctx, model); err != nil {
			return err
		}
	}

	movementIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "item_code", Value: 1},
				{Key: "warehouse_code", Value: 1},
				{Key: "sequence", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "movement_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "occurred_at", Value: -1}},
		},
	}
	for _, model := range movementIndexes {
		if _, err := r.movements.CreateIndex(ctx, model); err != nil {
			return err
		}
	}

	return nil
}

// FindByKey loads the record for one item in one warehouse.
func (r *StockRecordRepository) FindByKey(ctx context.Context, itemCode, warehouseCode string) (*domain.StockRecord, error) {
	filter := bson.M{"item_code": itemCode, "warehouse_code": warehouseCode}

	var record domain.StockRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrStockRecordNotFound
		}
		return nil, fmt.Errorf("failed to find stock record: %w", err)
	}

	return &record, nil
}

// Create inserts a brand-new record. When two callers race to create the
// same key, the unique index makes one of them lose; the loser gets
// ErrConcurrentModification and is expected to re-read the winner's row.
func (r *StockRecordRepository) Create(ctx context.Context, record *domain.StockRecord) error {
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConcurrentModification
		}
		return fmt.Errorf("failed to create stock record: %w", err)
	}
	return nil
}

// Save writes the mutated record, its movement entry, and the outbox rows for
// its staged domain events atomically. The movement, when present, receives
// the next value of the per-key sequence counter inside the transaction, so
// sequence numbers are gapless and strictly increasing per (item, warehouse).
func (r *StockRecordRepository) Save(ctx context.Context, record *domain.StockRecord, movement *domain.MovementEntry) error {
	expectedVersion := record.Version
	record.Version++
	record.UpdatedAt = time.Now()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		filter := bson.M{
			"item_code":      record.ItemCode,
			"warehouse_code": record.WarehouseCode,
			"version":        expectedVersion,
		}

		result, err := r.collection.ReplaceOne(sessCtx, filter, record)
		if err != nil {
			return fmt.Errorf("failed to save stock record: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrConcurrentModification
		}

		if movement != nil {
			sequence, err := r.nextSequence(sessCtx, record.ItemCode, record.WarehouseCode)
			if err != nil {
				return err
			}
			movement.Sequence = sequence

			if _, err := r.movements.InsertOne(sessCtx, movement); err != nil {
				return fmt.Errorf("failed to append movement entry: %w", err)
			}
		}

		return r.saveOutboxEvents(sessCtx, record)
	})

	if err != nil {
		record.Version = expectedVersion
		if errors.Is(err, domain.ErrConcurrentModification) {
			return domain.ErrConcurrentModification
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	record.ClearDomainEvents()
	return nil
}

// nextSequence atomically increments the movement counter for one key. The
// counter document is created on first use, so the first movement of a key
// gets sequence 1.
func (r *StockRecordRepository) nextSequence(ctx context.Context, itemCode, warehouseCode string) (int64, error) {
	counterID := fmt.Sprintf("movements:%s:%s", warehouseCode, itemCode)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": counterID},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate movement sequence: %w", err)
	}

	return counter.Value, nil
}

func (r *StockRecordRepository) saveOutboxEvents(sessCtx mongo.SessionContext, record *domain.StockRecord) error {
	domainEvents := record.GetDomainEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	subject := cloudevents.StockSubject(record.WarehouseCode, record.ItemCode)
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

	for _, event := range domainEvents {
		cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), subject, event)
		cloudEvent.WarehouseCode = record.WarehouseCode
		cloudEvent.ItemCode = record.ItemCode

		topic := kafka.Topics.StockEvents
		if event.EventType() == cloudevents.LowStockAlert {
			topic = kafka.Topics.StockAlerts
		}

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(subject, "StockRecord", topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}

	return nil
}

// List returns a page of records matching the filter, newest update first,
// together with the total match count for pagination.
func (r *StockRecordRepository) List(ctx context.Context, filter domain.StockRecordFilter, limit, offset int) ([]*domain.StockRecord, int64, error) {
	query := bson.M{}
	if filter.ItemCode != "" {
		query["item_code"] = filter.ItemCode
	}
	if filter.WarehouseCode != "" {
		query["warehouse_code"] = filter.WarehouseCode
	}
	if !filter.IncludeInactive {
		query["active"] = true
	}
	if filter.LowStockOnly {
		query["$expr"] = bson.M{
			"$lte": bson.A{
				bson.M{"$subtract": bson.A{"$quantity_on_hand", "$quantity_reserved"}},
				"$reorder_point",
			},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stock records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode stock records: %w", err)
	}

	return records, total, nil
}

// FindLowStock runs the low stock scan as an aggregation over live data.
// Rows where available is at or below the reorder point come back ordered by
// deficit ascending (most urgent first), with the key as a tiebreaker so the
// order is total and a cursor can resume the scan exactly where it stopped.
func (r *StockRecordRepository) FindLowStock(ctx context.Context, query domain.LowStockQuery) ([]domain.StockAlert, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLowStockLimit
	}

	match := bson.M{"active": true}
	if query.WarehouseCode != "" {
		match["warehouse_code"] = query.WarehouseCode
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"quantity_available": bson.M{"$subtract": bson.A{"$quantity_on_hand", "$quantity_reserved"}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"deficit": bson.M{"$subtract": bson.A{"$quantity_available", "$reorder_point"}},
		}}},
		{{Key: "$match", Value: bson.M{"deficit": bson.M{"$lte": 0}}}},
	}

	if query.After != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: afterCursorFilter(query.After)}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "deficit", Value: 1},
			{Key: "warehouse_code", Value: 1},
			{Key: "item_code", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to scan low stock: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []domain.StockAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode low stock alerts: %w", err)
	}

	return alerts, nil
}

// afterCursorFilter translates a resume cursor into a strict "greater than
// the last row" match in (deficit, warehouse_code, item_code) order. The
// deficit quantity marshals to Decimal128, so the comparisons run on the
// same type the pipeline computes.
func afterCursorFilter(after *domain.ScanCursor) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"deficit": bson.M{"$gt": after.Deficit}},
			bson.M{
				"deficit":        after.Deficit,
				"warehouse_code": bson.M{"$gt": after.WarehouseCode},
			},
			bson.M{
				"deficit":        after.Deficit,
				"warehouse_code": after.WarehouseCode,
				"item_code":      bson.M{"$gt": after.ItemCode},
			},
		},
	}
}

// GetOutboxRepository exposes the outbox store so the publisher can poll it.
func (r *StockRecordRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
