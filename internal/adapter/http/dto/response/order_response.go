package response

import (
	"time"

	"payment_gateway/internal/domain/entities"
)

type OrderResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromOrder(o entities.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		OrderID:   o.ID,
		Amount:    o.Total.Amount,
		Currency:  o.Total.Currency,
		Status:    string(o.Status),
		Provider:  o.Provider,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
