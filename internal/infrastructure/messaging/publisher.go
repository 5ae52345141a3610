package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/cloudevents"
	"github.com/lsf-services/warehouse-system/pkg/kafka"
)

// EventProducer is the slice of the Kafka producer the publisher needs.
type EventProducer interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WarehouseCloudEvent) error
}

// KafkaEventPublisher publishes domain events directly to Kafka, bypassing
// the outbox. Repository saves go through the outbox for atomicity; this
// publisher serves the paths with no accompanying write, such as the low
// stock monitor pushing alerts for records it only read.
type KafkaEventPublisher struct {
	producer EventProducer
	factory  *cloudevents.EventFactory
}

// NewKafkaEventPublisher wires a producer and an event factory into a
// domain.EventPublisher.
func NewKafkaEventPublisher(producer EventProducer, factory *cloudevents.EventFactory) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		factory:  factory,
	}
}

// Publish converts one domain event to a CloudEvent and sends it to the
// topic its type routes to.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	cloudEvent := p.factory.CreateEvent(ctx, event.EventType(), eventSubject(event), event)
	annotate(cloudEvent, event)

	topic := topicFor(event.EventType())
	if err := p.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}

// PublishAll publishes events in order, stopping at the first failure.
func (p *KafkaEventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// topicFor routes an event type to its topic: alerts to the alert topic,
// catalog events to the catalog topic, everything else to stock events.
func topicFor(eventType string) string {
	if eventType == cloudevents.LowStockAlert {
		return kafka.Topics.StockAlerts
	}
	if strings.HasPrefix(eventType, "warehouse.catalog.") {
		return kafka.Topics.CatalogEvents
	}
	return kafka.Topics.StockEvents
}

func eventSubject(event domain.DomainEvent) string {
	switch e := event.(type) {
	case *domain.StockReceivedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.StockReservedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.ReservationReleasedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.StockIssuedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.StockAdjustedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.StockLevelsChangedEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.LowStockAlertEvent:
		return cloudevents.StockSubject(e.WarehouseCode, e.ItemCode)
	case *domain.ItemCreatedEvent:
		return cloudevents.ItemSubject(e.ItemCode)
	case *domain.ItemDeactivatedEvent:
		return cloudevents.ItemSubject(e.ItemCode)
	case *domain.WarehouseCreatedEvent:
		return cloudevents.WarehouseSubject(e.WarehouseCode)
	case *domain.WarehouseDeactivatedEvent:
		return cloudevents.WarehouseSubject(e.WarehouseCode)
	default:
		return ""
	}
}

func annotate(cloudEvent *cloudevents.WarehouseCloudEvent, event domain.DomainEvent) {
	switch e := event.(type) {
	case *domain.StockReceivedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.StockReservedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.ReservationReleasedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.StockIssuedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.StockAdjustedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.StockLevelsChangedEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode, cloudEvent.Actor = e.WarehouseCode, e.ItemCode, e.Actor
	case *domain.LowStockAlertEvent:
		cloudEvent.WarehouseCode, cloudEvent.ItemCode = e.WarehouseCode, e.ItemCode
	case *domain.ItemCreatedEvent:
		cloudEvent.ItemCode, cloudEvent.Actor = e.ItemCode, e.CreatedBy
	case *domain.ItemDeactivatedEvent:
		cloudEvent.ItemCode, cloudEvent.Actor = e.ItemCode, e.DeactivatedBy
	case *domain.WarehouseCreatedEvent:
		cloudEvent.WarehouseCode, cloudEvent.Actor = e.WarehouseCode, e.CreatedBy
	case *domain.WarehouseDeactivatedEvent:
		cloudEvent.WarehouseCode, cloudEvent.Actor = e.WarehouseCode, e.DeactivatedBy
	}
}
