package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Warehouse is a physical stock location. Stock records reference it by
// code, so the code is immutable and warehouses are only ever deactivated.
type Warehouse struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"warehouse_code" json:"warehouse_code"`
	Name        string             `bson:"warehouse_name" json:"warehouse_name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Status      string             `bson:"status" json:"status"`

	CreatedBy string    `bson:"created_by" json:"created_by"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewWarehouse creates an active warehouse.
func NewWarehouse(code, name, description, address, createdBy string) (*Warehouse, error) {
	if code == "" || name == "" {
		return nil, ErrWarehouseCodeRequired
	}
	now := time.Now()
	w := &Warehouse{
		Code:        code,
		Name:        name,
		Description: description,
		Address:     address,
		Status:      StatusActive,
		CreatedBy:   createdBy,
		UpdatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.AddDomainEvent(&WarehouseCreatedEvent{
		WarehouseCode: code,
		WarehouseName: name,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	})
	return w, nil
}

// IsActive reports whether the warehouse accepts stock operations.
func (w *Warehouse) IsActive() bool {
	return w.Status == StatusActive
}

// Update replaces the mutable attributes.
func (w *Warehouse) Update(name, description, address, updatedBy string) error {
	if !w.IsActive() {
		return ErrWarehouseInactive
	}
	if name == "" {
		return ErrWarehouseCodeRequired
	}
	w.Name = name
	w.Description = description
	w.Address = address
	w.UpdatedBy = updatedBy
	w.UpdatedAt = time.Now()
	return nil
}

// Deactivate soft-deletes the warehouse.
func (w *Warehouse) Deactivate(by string) {
	if !w.IsActive() {
		return
	}
	now := time.Now()
	w.Status = StatusInactive
	w.UpdatedBy = by
	w.UpdatedAt = now
	w.AddDomainEvent(&WarehouseDeactivatedEvent{
		WarehouseCode: w.Code,
		DeactivatedBy: by,
		DeactivatedAt: now,
	})
}

// Activate re-enables a deactivated warehouse.
func (w *Warehouse) Activate(by string) {
	if w.IsActive() {
		return
	}
	w.Status = StatusActive
	w.UpdatedBy = by
	w.UpdatedAt = time.Now()
}

// AddDomainEvent registers a domain event for publication after persistence
func (w *Warehouse) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// GetDomainEvents returns the accumulated domain events
func (w *Warehouse) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

// ClearDomainEvents removes all accumulated domain events
func (w *Warehouse) ClearDomainEvents() {
	w.DomainEvents = nil
}
