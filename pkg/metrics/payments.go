package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and reconciliation outcomes.
type PaymentMetrics struct {
	checkouts *prometheus.CounterVec
	events    *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout submissions by payment method and result.",
	}, []string{"method", "result"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_events_total",
		Help: "Inbound payment events by provider and outcome.",
	}, []string{"provider", "outcome"})
	reg.MustRegister(checkouts, events)
	return &PaymentMetrics{
		checkouts: checkouts,
		events:    events,
	}
}

// IncCheckout increments the checkout counter for the method/result pair.
func (m *PaymentMetrics) IncCheckout(method, result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(method), normalizeLabel(result)).Inc()
}

// IncEvent increments the reconcile counter for the provider/outcome pair.
func (m *PaymentMetrics) IncEvent(provider, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
