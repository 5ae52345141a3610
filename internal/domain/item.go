package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemType distinguishes consumable stock from tracked assets.
type ItemType string

const (
	ItemTypeStock ItemType = "STOCK"
	ItemTypeAsset ItemType = "ASSET"
)

// IsValid reports whether the item type is a known value.
func (t ItemType) IsValid() bool {
	return t == ItemTypeStock || t == ItemTypeAsset
}

// Catalog entity status values. Entities are soft-deactivated, never
// removed, so ledger history stays resolvable.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// ItemDetails carries the optional catalog attributes of an item.
type ItemDetails struct {
	Description         string `bson:"description,omitempty" json:"description,omitempty"`
	UsageType           string `bson:"usage_type,omitempty" json:"usage_type,omitempty"`
	Category            string `bson:"category,omitempty" json:"category,omitempty"`
	Brand               string `bson:"brand,omitempty" json:"brand,omitempty"`
	Model               string `bson:"model,omitempty" json:"model,omitempty"`
	Unit                string `bson:"unit,omitempty" json:"unit,omitempty"`
	IsLoanable          bool   `bson:"is_loanable" json:"is_loanable"`
	RequiresReturn      bool   `bson:"requires_return" json:"requires_return"`
	MaxLoanDurationDays int    `bson:"max_loan_duration_days,omitempty" json:"max_loan_duration_days,omitempty"`
	StandardCost        Money  `bson:"standard_cost" json:"standard_cost"`
}

// Item is a catalog entry. The code is immutable once created; everything
// else can be updated.
type Item struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code    string             `bson:"item_code" json:"item_code"`
	Name    string             `bson:"item_name" json:"item_name"`
	Type    ItemType           `bson:"item_type" json:"item_type"`
	Details ItemDetails        `bson:"details" json:"details"`
	Status  string             `bson:"status" json:"status"`

	CreatedBy string    `bson:"created_by" json:"created_by"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewItem creates an active catalog item.
func NewItem(code, name string, itemType ItemType, details ItemDetails, createdBy string) (*Item, error) {
	if code == "" || name == "" {
		return nil, ErrItemCodeRequired
	}
	if !itemType.IsValid() {
		return nil, ErrInvalidItemType
	}
	if details.MaxLoanDurationDays < 0 {
		return nil, ErrInvalidLoanDuration
	}
	if details.StandardCost.IsNegative() {
		return nil, ErrInvalidCost
	}

	now := time.Now()
	item := &Item{
		Code:      code,
		Name:      name,
		Type:      itemType,
		Details:   details,
		Status:    StatusActive,
		CreatedBy: createdBy,
		UpdatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.AddDomainEvent(&ItemCreatedEvent{
		ItemCode:  code,
		ItemName:  name,
		ItemType:  string(itemType),
		CreatedBy: createdBy,
		CreatedAt: now,
	})
	return item, nil
}

// IsActive reports whether the item accepts new stock operations.
func (i *Item) IsActive() bool {
	return i.Status == StatusActive
}

// Update replaces the mutable attributes. The code and type stay fixed.
func (i *Item) Update(name string, details ItemDetails, updatedBy string) error {
	if !i.IsActive() {
		return ErrItemInactive
	}
	if name == "" {
		return ErrItemCodeRequired
	}
	if details.MaxLoanDurationDays < 0 {
		return ErrInvalidLoanDuration
	}
	if details.StandardCost.IsNegative() {
		return ErrInvalidCost
	}
	i.Name = name
	i.Details = details
	i.UpdatedBy = updatedBy
	i.UpdatedAt = time.Now()
	return nil
}

// Deactivate soft-deletes the item.
func (i *Item) Deactivate(by string) {
	if !i.IsActive() {
		return
	}
	now := time.Now()
	i.Status = StatusInactive
	i.UpdatedBy = by
	i.UpdatedAt = now
	i.AddDomainEvent(&ItemDeactivatedEvent{
		ItemCode:      i.Code,
		DeactivatedBy: by,
		DeactivatedAt: now,
	})
}

// Activate re-enables a deactivated item.
func (i *Item) Activate(by string) {
	if i.IsActive() {
		return
	}
	i.Status = StatusActive
	i.UpdatedBy = by
	i.UpdatedAt = time.Now()
}

// AddDomainEvent registers a domain event for publication after persistence
func (i *Item) AddDomainEvent(event DomainEvent) {
	i.DomainEvents = append(i.DomainEvents, event)
}

// GetDomainEvents returns the accumulated domain events
func (i *Item) GetDomainEvents() []DomainEvent {
	return i.DomainEvents
}

// ClearDomainEvents removes all accumulated domain events
func (i *Item) ClearDomainEvents() {
	i.DomainEvents = nil
}
