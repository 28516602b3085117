package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest creates an order with its line items.
type CreateOrderRequest struct {
	CustomerName   *string           `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	OrderDate      time.Time         `json:"order_date" validate:"required"`
	DeliveryDate   *time.Time        `json:"delivery_date,omitempty"`
	ProductionDate *string           `json:"production_date,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	Items          []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// LineItemRequest is one requested line item.
type LineItemRequest struct {
	ProductName string          `json:"product_name" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsGift      bool            `json:"is_gift"`
}

// UpdateOrderRequest edits order fields; nil fields stay unchanged. When
// Items is set the full item list is replaced.
type UpdateOrderRequest struct {
	CustomerName   *string            `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	DeliveryDate   *time.Time         `json:"delivery_date,omitempty"`
	ProductionDate *string            `json:"production_date,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	Items          *[]LineItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ShippingStatusRequest transitions an order's shipping status.
type ShippingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipped cancelled"`
}

// ShippingStatusResponse reports the resulting status.
type ShippingStatusResponse struct {
	OrderID        int64          `json:"order_id"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
}

// ListOrdersRequest filters the order list.
type ListOrdersRequest struct {
	Status   *ShippingStatus `json:"status,omitempty"`
	DateFrom *time.Time      `json:"date_from,omitempty"`
	DateTo   *time.Time      `json:"date_to,omitempty"`
	Limit    int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int             `json:"offset" validate:"gte=0"`
}
