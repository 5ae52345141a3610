package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/lsf-services/warehouse-system/pkg/metrics"
	"github.com/lsf-services/warehouse-system/pkg/resilience"
)

// CircuitBreakerClient wraps an InstrumentedClient so that a failing MongoDB
// stops receiving traffic instead of stacking up timeouts.
type CircuitBreakerClient struct {
	client         *InstrumentedClient
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// operationSucceeded classifies breaker outcomes. Duplicate keys, misses,
// cancelled contexts, and transaction conflicts the driver retries itself
// are caller outcomes, not storage failures.
func operationSucceeded(err error) bool {
	if err == nil {
		return true
	}
	if mongo.IsDuplicateKeyError(err) || errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, context.Canceled) {
		return true
	}
	var srvErr mongo.ServerError
	return errors.As(err, &srvErr) && srvErr.HasErrorLabel("TransientTransactionError")
}

// NewCircuitBreakerClient creates the breaker-protected client.
func NewCircuitBreakerClient(client *InstrumentedClient, logger *logging.Logger) *CircuitBreakerClient {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "mongodb",
		MaxRequests:           5,
		Interval:              60 * time.Second,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
		IsSuccessful:          operationSucceeded,
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerClient{
		client:         client,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger, client.metrics),
		logger:         logger,
	}
}

// Collection returns a breaker-protected collection handle.
func (c *CircuitBreakerClient) Collection(name string) *CircuitBreakerCollection {
	return &CircuitBreakerCollection{
		collection:     c.client.Collection(name),
		circuitBreaker: c.circuitBreaker,
	}
}

// Database returns the raw database handle for code that manages its own
// collections.
func (c *CircuitBreakerClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client.
func (c *CircuitBreakerClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the primary through the breaker, so readiness flips as
// soon as the breaker opens.
func (c *CircuitBreakerClient) HealthCheck(ctx context.Context) error {
	_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.client.HealthCheck(ctx)
	})
	return err
}

// WithTransaction runs fn inside a session transaction. Collection
// operations inside the callback are breaker protected individually; the
// transaction itself is not wrapped, so a domain-level abort does not count
// against the breaker.
func (c *CircuitBreakerClient) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	return c.client.WithTransaction(ctx, fn)
}

// CircuitBreakerCollection runs each collection operation through the
// breaker. Rejected calls fail fast without touching the driver.
type CircuitBreakerCollection struct {
	collection     *InstrumentedCollection
	circuitBreaker *resilience.CircuitBreaker
}

// InsertOne inserts a single document.
func (c *CircuitBreakerCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.InsertOne(ctx, document, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.InsertOneResult), nil
}

// FindOne finds a single document. When the breaker rejects the call, the
// returned result carries the breaker error from Err and Decode.
func (c *CircuitBreakerCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		res := c.collection.FindOne(ctx, filter, opts...)
		return res, res.Err()
	})
	if sr, ok := result.(*mongo.SingleResult); ok {
		return sr
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
}

// Find returns a cursor over matching documents.
func (c *CircuitBreakerCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.Find(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.Cursor), nil
}

// ReplaceOne replaces a single document matching the filter.
func (c *CircuitBreakerCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.ReplaceOne(ctx, filter, replacement, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.UpdateResult), nil
}

// UpdateOne updates a single document matching the filter.
func (c *CircuitBreakerCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.UpdateOne(ctx, filter, update, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.UpdateResult), nil
}

// CountDocuments counts documents matching the filter.
func (c *CircuitBreakerCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.CountDocuments(ctx, filter, opts...)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Aggregate runs an aggregation pipeline.
func (c *CircuitBreakerCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.Aggregate(ctx, pipeline, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.Cursor), nil
}

// FindOneAndUpdate atomically modifies and returns a single document.
func (c *CircuitBreakerCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		res := c.collection.FindOneAndUpdate(ctx, filter, update, opts...)
		return res, res.Err()
	})
	if sr, ok := result.(*mongo.SingleResult); ok {
		return sr
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
}

// CreateIndex creates a single index.
func (c *CircuitBreakerCollection) CreateIndex(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.CreateIndex(ctx, model, opts...)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Name returns the collection name.
func (c *CircuitBreakerCollection) Name() string {
	return c.collection.Name()
}

// NewProductionClient builds the full storage stack: a connected client with
// pool monitoring, wrapped in instrumentation, wrapped in the breaker.
func NewProductionClient(ctx context.Context, config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerClient, error) {
	if config.PoolMonitor == nil && m != nil {
		config.PoolMonitor = NewConnectionPoolMonitor(m).Monitor()
	}

	// A replica set that is still electing a primary refuses the first
	// connection attempts.
	retryCfg := &resilience.RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: func(err error) bool { return true },
	}
	baseClient, err := resilience.RetryWithResult(ctx, retryCfg, func() (*Client, error) {
		return NewClient(ctx, config)
	})
	if err != nil {
		return nil, err
	}

	return NewCircuitBreakerClient(NewInstrumentedClient(baseClient, m, logger), logger), nil
}
