package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for warehouse domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WarehouseCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WarehouseCloudEvent {
	event := &WarehouseCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateStockReceivedEvent creates a StockReceived event
func (f *EventFactory) CreateStockReceivedEvent(
	ctx context.Context,
	data StockReceivedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, StockReceived, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateStockReservedEvent creates a StockReserved event
func (f *EventFactory) CreateStockReservedEvent(
	ctx context.Context,
	data StockReservedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, StockReserved, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateReservationReleasedEvent creates a ReservationReleased event
func (f *EventFactory) CreateReservationReleasedEvent(
	ctx context.Context,
	data ReservationReleasedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, ReservationReleased, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateStockIssuedEvent creates a StockIssued event
func (f *EventFactory) CreateStockIssuedEvent(
	ctx context.Context,
	data StockIssuedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, StockIssued, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateStockAdjustedEvent creates a StockAdjusted event
func (f *EventFactory) CreateStockAdjustedEvent(
	ctx context.Context,
	data StockAdjustedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, StockAdjusted, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateStockLevelsChangedEvent creates a StockLevelsChanged event
func (f *EventFactory) CreateStockLevelsChangedEvent(
	ctx context.Context,
	data StockLevelsChangedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, StockLevelsChanged, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	event.Actor = data.Actor
	return event
}

// CreateLowStockAlertEvent creates a LowStockAlert event
func (f *EventFactory) CreateLowStockAlertEvent(
	ctx context.Context,
	data LowStockAlertData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, LowStockAlert, StockSubject(data.WarehouseCode, data.ItemCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.ItemCode = data.ItemCode
	return event
}

// CreateItemCreatedEvent creates an ItemCreated event
func (f *EventFactory) CreateItemCreatedEvent(
	ctx context.Context,
	data ItemCreatedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, ItemCreated, ItemSubject(data.ItemCode), data)
	event.ItemCode = data.ItemCode
	event.Actor = data.CreatedBy
	return event
}

// CreateItemDeactivatedEvent creates an ItemDeactivated event
func (f *EventFactory) CreateItemDeactivatedEvent(
	ctx context.Context,
	data ItemDeactivatedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, ItemDeactivated, ItemSubject(data.ItemCode), data)
	event.ItemCode = data.ItemCode
	event.Actor = data.DeactivatedBy
	return event
}

// CreateWarehouseCreatedEvent creates a WarehouseCreated event
func (f *EventFactory) CreateWarehouseCreatedEvent(
	ctx context.Context,
	data WarehouseCreatedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, WarehouseCreated, WarehouseSubject(data.WarehouseCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.Actor = data.CreatedBy
	return event
}

// CreateWarehouseDeactivatedEvent creates a WarehouseDeactivated event
func (f *EventFactory) CreateWarehouseDeactivatedEvent(
	ctx context.Context,
	data WarehouseDeactivatedData,
) *WarehouseCloudEvent {
	event := f.CreateEvent(ctx, WarehouseDeactivated, WarehouseSubject(data.WarehouseCode), data)
	event.WarehouseCode = data.WarehouseCode
	event.Actor = data.DeactivatedBy
	return event
}
