package cloudevents

// CloudEvents extension attribute names for warehouse context
const (
	ExtCorrelationID = "whcorrelationid"
	ExtWarehouseCode = "whwarehousecode"
	ExtItemCode      = "whitemcode"
	ExtActor         = "whactor"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// HTTP header names for warehouse context propagation
const (
	HeaderWarehouseCode = "X-Warehouse-Code"
	HeaderItemCode      = "X-Item-Code"
	HeaderActor         = "X-Actor"
)

// WithCorrelation sets the correlation ID and returns the event
func (e *WarehouseCloudEvent) WithCorrelation(correlationID string) *WarehouseCloudEvent {
	e.CorrelationID = correlationID
	return e
}

// WithStockKey sets the warehouse and item extensions and returns the event
func (e *WarehouseCloudEvent) WithStockKey(warehouseCode, itemCode string) *WarehouseCloudEvent {
	e.WarehouseCode = warehouseCode
	e.ItemCode = itemCode
	return e
}

// WithActor sets the acting user extension and returns the event
func (e *WarehouseCloudEvent) WithActor(actor string) *WarehouseCloudEvent {
	e.Actor = actor
	return e
}

// SetExtension stores an arbitrary extension attribute on the event
func (e *WarehouseCloudEvent) SetExtension(name string, value interface{}) {
	if e.Extensions == nil {
		e.Extensions = make(map[string]interface{})
	}
	e.Extensions[name] = value
}

// GetExtension retrieves an arbitrary extension attribute from the event
func (e *WarehouseCloudEvent) GetExtension(name string) (interface{}, bool) {
	if e.Extensions == nil {
		return nil, false
	}
	v, ok := e.Extensions[name]
	return v, ok
}

// HasStockKey returns true if both warehouse and item extensions are set
func (e *WarehouseCloudEvent) HasStockKey() bool {
	return e.WarehouseCode != "" && e.ItemCode != ""
}
