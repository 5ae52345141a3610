package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lsf-services/warehouse-system/pkg/cloudevents"
	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/lsf-services/warehouse-system/pkg/metrics"
	"github.com/lsf-services/warehouse-system/pkg/resilience"
)

// CircuitBreakerProducer wraps an InstrumentedProducer so that unreachable
// brokers fail fast instead of blocking the outbox loop on write timeouts.
type CircuitBreakerProducer struct {
	producer       *InstrumentedProducer
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerProducer creates the breaker-protected producer. A
// cancelled context is a caller outcome, not a broker failure.
func NewCircuitBreakerProducer(producer *InstrumentedProducer, logger *logging.Logger) *CircuitBreakerProducer {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "kafka-producer",
		MaxRequests:           5,
		Interval:              60 * time.Second,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger, producer.metrics),
		logger:         logger,
	}
}

// PublishEvent publishes a CloudEvent through the breaker.
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WarehouseCloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// IsOpen reports whether the breaker is refusing publishes. The producer has
// no ping, so this is the health signal readiness checks get.
func (p *CircuitBreakerProducer) IsOpen() bool {
	return p.circuitBreaker.IsOpen()
}

// Close closes the underlying producer.
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer builds the full publishing stack: a producer wrapped
// in instrumentation, wrapped in the breaker.
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	return NewCircuitBreakerProducer(NewInstrumentedProducer(NewProducer(config), m, logger), logger)
}
