package request

import "strings"

// OrderCreateRequest opens an order that payments can settle.
//
// Amount is in minor units (cents).
type OrderCreateRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,len=3"`
	Provider string `json:"provider" binding:"required"`
}

func (r OrderCreateRequest) ResolveCurrency() string {
	return strings.ToUpper(strings.TrimSpace(r.Currency))
}
