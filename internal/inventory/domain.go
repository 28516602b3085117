package inventory

import (
	"errors"
	"time"
)

// Product is a catalog entry with its current warehouse stock.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CurrentStock int       `json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MovementReason enumerates why a stock delta was applied.
type MovementReason string

const (
	// ReasonProductionComplete credits stock when a planned batch is finished.
	ReasonProductionComplete MovementReason = "PRODUCTION_COMPLETE"
	// ReasonProductionRevert reverses a completion credit.
	ReasonProductionRevert MovementReason = "PRODUCTION_REVERT"
	// ReasonOrderShipped debits stock when an order leaves the warehouse.
	ReasonOrderShipped MovementReason = "ORDER_SHIPPED"
	// ReasonOrderUnshipped returns stock when a shipment is rolled back.
	ReasonOrderUnshipped MovementReason = "ORDER_UNSHIPPED"
	// ReasonShippedEdit adjusts stock for edits on an already-shipped order.
	ReasonShippedEdit MovementReason = "SHIPPED_EDIT"
	// ReasonManual marks operator stock resets.
	ReasonManual MovementReason = "MANUAL"
)

// Movement is the audit record of a single stock delta.
type Movement struct {
	ID          int64
	ProductID   int64
	ProductName string
	Delta       int
	Reason      MovementReason
	RefID       string
	Clamped     bool
	CreatedAt   time.Time
}

// ShipDirection tells the reconciler whether goods leave or re-enter stock.
type ShipDirection string

const (
	// DirectionShip removes line item quantities from stock.
	DirectionShip ShipDirection = "SHIP"
	// DirectionUnship returns line item quantities to stock.
	DirectionUnship ShipDirection = "UNSHIP"
)

// ShippingItem is one order line as seen by the reconciler.
type ShippingItem struct {
	ProductName string
	Quantity    int
}

// ErrProductNotFound indicates a missing catalog row.
var ErrProductNotFound = errors.New("inventory: product not found")

// ErrProductExists indicates a duplicate product name.
var ErrProductExists = errors.New("inventory: product already exists")

// ErrInvalidStock indicates a negative stock value on a direct set.
var ErrInvalidStock = errors.New("inventory: stock must be >= 0")
