package interfaces

import (
	"context"

	"payment_gateway/internal/domain/entities"
)

// IOrderRepository abstracts persistence for Order.
//
// GetByID returns a zero Order (empty ID) when nothing is stored.
type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	UpdateStatus(ctx context.Context, id string, status entities.OrderStatus) (entities.Order, error)
}
