package entities

// PaymentState is a node of the payment lifecycle.
//
//	pending -> authorized -> captured -> partially_refunded -> refunded
//	pending|authorized -> cancelled
//	pending|authorized|partially_refunded -> failed
type PaymentState string

const (
	PaymentStatePending           PaymentState = "pending"
	PaymentStateAuthorized        PaymentState = "authorized"
	PaymentStateCaptured          PaymentState = "captured"
	PaymentStatePartiallyRefunded PaymentState = "partially_refunded"
	PaymentStateRefunded          PaymentState = "refunded"
	PaymentStateCancelled         PaymentState = "cancelled"
	PaymentStateFailed            PaymentState = "failed"
)

var AllPaymentStates = []PaymentState{
	PaymentStatePending,
	PaymentStateAuthorized,
	PaymentStateCaptured,
	PaymentStatePartiallyRefunded,
	PaymentStateRefunded,
	PaymentStateCancelled,
	PaymentStateFailed,
}

var paymentTransitions = map[PaymentState][]PaymentState{
	PaymentStatePending: {
		PaymentStateAuthorized,
		PaymentStateCaptured,
		PaymentStateCancelled,
		PaymentStateFailed,
	},
	PaymentStateAuthorized: {
		PaymentStateCaptured,
		PaymentStateCancelled,
		PaymentStateFailed,
	},
	PaymentStateCaptured: {
		PaymentStatePartiallyRefunded,
		PaymentStateRefunded,
	},
	// Further partial refunds keep the payment in the same state.
	PaymentStatePartiallyRefunded: {
		PaymentStatePartiallyRefunded,
		PaymentStateRefunded,
		PaymentStateFailed,
	},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s PaymentState) CanTransitionTo(target PaymentState) bool {
	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsPreCapture reports whether funds have not been collected yet.
func (s PaymentState) IsPreCapture() bool {
	return s == PaymentStatePending || s == PaymentStateAuthorized
}

// IsRefundable reports whether refunds may be issued against the payment.
func (s PaymentState) IsRefundable() bool {
	return s == PaymentStateCaptured || s == PaymentStatePartiallyRefunded
}

// IsTerminal reports whether no further transition is possible without a
// compensating action. A captured payment is terminal until refunded.
func (s PaymentState) IsTerminal() bool {
	switch s {
	case PaymentStateCaptured, PaymentStateRefunded, PaymentStateCancelled, PaymentStateFailed:
		return true
	}
	return false
}

func (s PaymentState) Valid() bool {
	for _, known := range AllPaymentStates {
		if s == known {
			return true
		}
	}
	return false
}

// rank orders states along the forward path. Cancelled and failed are
// side exits and share the highest rank.
func (s PaymentState) rank() int {
	switch s {
	case PaymentStatePending:
		return 0
	case PaymentStateAuthorized:
		return 1
	case PaymentStateCaptured:
		return 2
	case PaymentStatePartiallyRefunded:
		return 3
	case PaymentStateRefunded, PaymentStateCancelled, PaymentStateFailed:
		return 4
	}
	return -1
}

// IsBehind reports whether s precedes other on the forward path.
func (s PaymentState) IsBehind(other PaymentState) bool {
	return s.rank() < other.rank()
}
