package orders

import (
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
)

// Decision is the state machine's answer for an accepted intent. NoOp marks
// a duplicate delivery whose target status already holds; callers must not
// write anything for a no-op beyond the audit trail.
type Decision struct {
	Next enums.OrderStatus
	NoOp bool
}

type edge struct {
	target  enums.OrderStatus
	allowed []enums.OrderStatus
}

var transitionTable = map[enums.TransitionIntent]edge{
	enums.IntentAttachPayment: {
		target:  enums.OrderStatusAwaitingPayment,
		allowed: []enums.OrderStatus{enums.OrderStatusPending},
	},
	enums.IntentPaymentSucceeded: {
		target:  enums.OrderStatusPaid,
		allowed: []enums.OrderStatus{enums.OrderStatusAwaitingPayment},
	},
	enums.IntentPaymentFailed: {
		target:  enums.OrderStatusFailed,
		allowed: []enums.OrderStatus{enums.OrderStatusAwaitingPayment},
	},
	enums.IntentCancel: {
		target:  enums.OrderStatusCancelled,
		allowed: []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusAwaitingPayment},
	},
	enums.IntentRefund: {
		target:  enums.OrderStatusRefunded,
		allowed: []enums.OrderStatus{enums.OrderStatusPaid},
	},
}

// Apply decides the next order status for an incoming transition intent.
// It is a pure function over the persisted status: delivery order and
// wall-clock time never influence the decision. An intent whose target
// equals the current status is accepted as a no-op, which collapses
// at-least-once delivery into effectively-once application. Every edge not
// in the table is a typed rejection the caller must handle.
func Apply(current enums.OrderStatus, intent enums.TransitionIntent) (Decision, error) {
	if !current.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeStateConflict, "unknown current order status").
			WithDetails(map[string]any{"status": string(current)})
	}

	e, ok := transitionTable[intent]
	if !ok {
		return Decision{}, pkgerrors.New(pkgerrors.CodeStateConflict, "unknown transition intent").
			WithDetails(map[string]any{"intent": string(intent)})
	}

	if current == e.target {
		return Decision{Next: current, NoOp: true}, nil
	}

	for _, from := range e.allowed {
		if current == from {
			return Decision{Next: e.target}, nil
		}
	}

	return Decision{}, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transition").
		WithDetails(map[string]any{
			"from":   string(current),
			"intent": string(intent),
			"to":     string(e.target),
		})
}
