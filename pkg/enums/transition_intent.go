package enums

import "fmt"

// TransitionIntent is the internal classification an external signal (or the
// session router itself) maps to before it reaches the order state machine.
type TransitionIntent string

const (
	IntentAttachPayment    TransitionIntent = "attach_payment"
	IntentPaymentSucceeded TransitionIntent = "payment_succeeded"
	IntentPaymentFailed    TransitionIntent = "payment_failed"
	IntentCancel           TransitionIntent = "cancel"
	IntentRefund           TransitionIntent = "refund"
)

var validTransitionIntents = []TransitionIntent{
	IntentAttachPayment,
	IntentPaymentSucceeded,
	IntentPaymentFailed,
	IntentCancel,
	IntentRefund,
}

// String implements fmt.Stringer.
func (i TransitionIntent) String() string {
	return string(i)
}

// IsValid reports whether the value is a known TransitionIntent.
func (i TransitionIntent) IsValid() bool {
	for _, candidate := range validTransitionIntents {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseTransitionIntent converts raw input into a TransitionIntent.
func ParseTransitionIntent(value string) (TransitionIntent, error) {
	for _, candidate := range validTransitionIntents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition intent %q", value)
}
