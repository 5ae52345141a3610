package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrInvalidCost            = errors.New("unit cost cannot be negative")
	ErrReceiptRequiresCost    = errors.New("receipts must be applied through Receive so the unit cost reaches the average")
	ErrInvalidMovementType    = errors.New("invalid movement type")
	ErrInvalidLevels          = errors.New("stock levels must satisfy 0 <= min <= reorder point <= max")
	ErrStockRecordNotFound    = errors.New("stock record not found")
	ErrStockRecordInactive    = errors.New("stock record is deactivated")
	ErrItemNotFound           = errors.New("item not found")
	ErrItemAlreadyExists      = errors.New("item code already exists")
	ErrItemInactive           = errors.New("item is deactivated")
	ErrItemCodeRequired       = errors.New("item code and name are required")
	ErrInvalidItemType        = errors.New("item type must be STOCK or ASSET")
	ErrInvalidLoanDuration    = errors.New("loan duration cannot be negative")
	ErrWarehouseCodeRequired  = errors.New("warehouse code and name are required")
	ErrWarehouseNotFound      = errors.New("warehouse not found")
	ErrWarehouseAlreadyExists = errors.New("warehouse code already exists")
	ErrWarehouseInactive      = errors.New("warehouse is deactivated")
	ErrSameWarehouse          = errors.New("source and destination warehouses must differ")
	ErrConcurrentModification = errors.New("stock record was modified concurrently")
	ErrMovementNotFound       = errors.New("movement entry not found")
	ErrReasonRequired         = errors.New("adjustments require a reason")
)

// Class sentinels. The typed errors below match these through errors.Is so
// callers can branch on the failure class without unpacking the struct.
var (
	ErrInvariantViolation    = errors.New("stock invariant violated")
	ErrInsufficientAvailable = errors.New("insufficient available quantity")
	ErrOverRelease           = errors.New("release exceeds reserved quantity")
	ErrReservationMismatch   = errors.New("issue exceeds reserved quantity")
)

// InvariantViolationError reports a delta that would break a balance
// invariant, carrying the record key and the balances involved.
type InvariantViolationError struct {
	ItemCode      string
	WarehouseCode string
	OnHandDelta   Quantity
	ReservedDelta Quantity
	OnHand        Quantity
	Reserved      Quantity
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf(
		"stock invariant violated for %s/%s: delta onHand=%s reserved=%s against onHand=%s reserved=%s",
		e.WarehouseCode, e.ItemCode,
		e.OnHandDelta, e.ReservedDelta, e.OnHand, e.Reserved)
}

func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// InsufficientAvailableError reports a reservation attempt that exceeds the
// available quantity.
type InsufficientAvailableError struct {
	ItemCode      string
	WarehouseCode string
	Requested     Quantity
	Available     Quantity
	OnHand        Quantity
	Reserved      Quantity
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf(
		"insufficient available quantity for %s/%s: requested %s, available %s (onHand %s, reserved %s)",
		e.WarehouseCode, e.ItemCode,
		e.Requested, e.Available, e.OnHand, e.Reserved)
}

func (e *InsufficientAvailableError) Is(target error) bool {
	return target == ErrInsufficientAvailable
}

// OverReleaseError reports a release attempt larger than the reserved
// quantity.
type OverReleaseError struct {
	ItemCode      string
	WarehouseCode string
	Requested     Quantity
	Reserved      Quantity
}

func (e *OverReleaseError) Error() string {
	return fmt.Sprintf(
		"release exceeds reserved quantity for %s/%s: requested %s, reserved %s",
		e.WarehouseCode, e.ItemCode, e.Requested, e.Reserved)
}

func (e *OverReleaseError) Is(target error) bool {
	return target == ErrOverRelease
}

// ReservationMismatchError reports an issue commit larger than the reserved
// quantity.
type ReservationMismatchError struct {
	ItemCode      string
	WarehouseCode string
	Requested     Quantity
	Reserved      Quantity
}

func (e *ReservationMismatchError) Error() string {
	return fmt.Sprintf(
		"issue exceeds reserved quantity for %s/%s: requested %s, reserved %s",
		e.WarehouseCode, e.ItemCode, e.Requested, e.Reserved)
}

func (e *ReservationMismatchError) Is(target error) bool {
	return target == ErrReservationMismatch
}
