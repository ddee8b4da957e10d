package usecase

import (
	"fmt"

	"payment_gateway/internal/domain/entities"
)

// Input errors. All of them wrap entities.ErrValidation.
var (
	ErrInvalidOrderID     = fmt.Errorf("%w: invalid order_id", entities.ErrValidation)
	ErrInvalidPaymentID   = fmt.Errorf("%w: invalid payment_id", entities.ErrValidation)
	ErrInvalidOrderTotal  = fmt.Errorf("%w: invalid order total", entities.ErrValidation)
	ErrInvalidPaymentData = fmt.Errorf("%w: payment_data must be a JSON object", entities.ErrValidation)
	ErrOrderNotOpen       = fmt.Errorf("%w: order is not open", entities.ErrValidation)
)

// ErrPaymentInProgress rejects a new payment while another one on the same
// order can still be captured.
var ErrPaymentInProgress = fmt.Errorf("%w: order already has a payment in progress", entities.ErrInvalidStateTransition)
