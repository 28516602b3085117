package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ShippingStatus tracks whether an order's goods have left inventory.
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusCancelled ShippingStatus = "cancelled"
)

// IsValid reports whether the status is a known shipping status.
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusShipped, ShippingStatusCancelled:
		return true
	default:
		return false
	}
}

// Shipped reports whether goods have left the warehouse in this status.
func (s ShippingStatus) Shipped() bool {
	return s == ShippingStatusShipped
}

// Order is a customer order. CustomerName is nil for walk-in orders;
// ProductionDate is nil until the order is scheduled for manufacturing.
type Order struct {
	ID             int64          `json:"id"`
	CustomerName   *string        `json:"customer_name,omitempty"`
	OrderDate      time.Time      `json:"order_date"`
	DeliveryDate   *time.Time     `json:"delivery_date,omitempty"`
	ProductionDate *string        `json:"production_date,omitempty"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
	Notes          *string        `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Items          []LineItem     `json:"items,omitempty"`
}

// LineItem is one product position on an order.
type LineItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsGift      bool            `json:"is_gift"`
	Position    int             `json:"position"`
}

// Total sums quantity times unit price over all billable (non-gift) items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.IsGift {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ErrNotFound indicates a missing order.
var ErrNotFound = errors.New("orders: order not found")

// ErrInvalidStatus indicates an unknown shipping status.
var ErrInvalidStatus = errors.New("orders: invalid shipping status")

// ErrNoItems indicates an order without line items.
var ErrNoItems = errors.New("orders: at least one line item required")
