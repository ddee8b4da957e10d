package entities

import "time"

// OrderStatus represents the lifecycle of an order owned by the commerce flow.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the commerce order a payment settles.
//
// Storage model (DynamoDB):
//   - PK: id
//
// Provider names the payment adapter that serves the order; the router resolves
// the adapter from it. An order is immutable once fulfilled.
type Order struct {
	ID        string      `json:"id"`
	Total     Money       `json:"total"`
	Status    OrderStatus `json:"status"`
	Provider  string      `json:"provider"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (o Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}
