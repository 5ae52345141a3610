// Package asyncapi validates event payloads against an AsyncAPI document.
package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// schemaEventTypes maps component schema names, minus their Data or Event
// suffix, to the event types published under them.
var schemaEventTypes = map[string]string{
	"StockReceived":       "warehouse.stock.received",
	"StockReserved":       "warehouse.stock.reserved",
	"ReservationReleased": "warehouse.stock.released",
	"StockIssued":         "warehouse.stock.issued",
	"StockAdjusted":       "warehouse.stock.adjusted",
	"StockLevelsChanged":  "warehouse.stock.levels-changed",

	"LowStockAlert": "warehouse.stock.low-stock-alert",

	"ItemCreated":          "warehouse.catalog.item-created",
	"ItemDeactivated":      "warehouse.catalog.item-deactivated",
	"WarehouseCreated":     "warehouse.catalog.warehouse-created",
	"WarehouseDeactivated": "warehouse.catalog.warehouse-deactivated",
}

// EventValidator checks CloudEvent data payloads against the JSON schemas an
// AsyncAPI document declares for each event type.
type EventValidator struct {
	schemas    map[string]*jsonschema.Schema
	rawSchemas map[string]interface{}
	compiler   *jsonschema.Compiler
}

// CloudEvent is the envelope shape the validator consumes. Only the type and
// data attributes matter for validation; the remaining attributes are carried
// so full envelopes parse cleanly.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            string      `json:"time,omitempty"`
	DataContentType string      `json:"datacontenttype,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// asyncAPIDocument captures the parts of an AsyncAPI document the validator
// reads.
type asyncAPIDocument struct {
	AsyncAPI string `yaml:"asyncapi"`
	Info     struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Components struct {
		Schemas map[string]interface{} `yaml:"schemas"`
	} `yaml:"components"`
}

// NewEventValidator loads the AsyncAPI document at path and compiles a
// schema for every event type it declares.
func NewEventValidator(path string) (*EventValidator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read AsyncAPI spec: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes compiles a validator from AsyncAPI document
// bytes.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var doc asyncAPIDocument
	if err := yaml.Unmarshal(specBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	v := &EventValidator{
		schemas:    make(map[string]*jsonschema.Schema),
		rawSchemas: make(map[string]interface{}),
		compiler:   jsonschema.NewCompiler(),
	}
	for name, raw := range doc.Components.Schemas {
		eventType := eventTypeForSchema(name)
		if eventType == "" {
			continue
		}
		schemaMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		compiled, err := v.compile(fmt.Sprintf("asyncapi://schemas/%s", name), schemaMap)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[eventType] = compiled
		v.rawSchemas[eventType] = schemaMap
	}
	return v, nil
}

// compile round trips the schema through JSON so the compiler sees JSON
// document types rather than YAML ones.
func (v *EventValidator) compile(uri string, schema interface{}) (*jsonschema.Schema, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	if err := v.compiler.AddResource(uri, doc); err != nil {
		return nil, err
	}
	return v.compiler.Compile(uri)
}

// ValidateEvent validates the event's data payload against the schema
// registered for its type.
func (v *EventValidator) ValidateEvent(event CloudEvent) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if event.Data == nil {
		return fmt.Errorf("event data is required")
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// ValidateEventJSON parses a structured mode CloudEvent and validates its
// data payload.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event CloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(event)
}

// GetSupportedEventTypes returns every event type with a registered schema.
func (v *EventValidator) GetSupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	return types
}

// HasSchema reports whether a schema is registered for the event type.
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}

// GetSchema returns the raw schema document for an event type.
func (v *EventValidator) GetSchema(eventType string) (interface{}, bool) {
	schema, ok := v.rawSchemas[eventType]
	return schema, ok
}

// RegisterSchema adds a schema for an event type outside the AsyncAPI
// document, such as one still being drafted.
func (v *EventValidator) RegisterSchema(eventType string, schemaJSON []byte) error {
	var raw interface{}
	if err := json.Unmarshal(schemaJSON, &raw); err != nil {
		return fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	compiled, err := v.compile(fmt.Sprintf("custom://schemas/%s", eventType), raw)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	v.schemas[eventType] = compiled
	v.rawSchemas[eventType] = raw
	return nil
}

// eventTypeForSchema resolves a component schema name to its event type.
func eventTypeForSchema(name string) string {
	name = strings.TrimSuffix(name, "Data")
	name = strings.TrimSuffix(name, "Event")
	return schemaEventTypes[name]
}
