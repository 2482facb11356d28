package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics counts reconciliation outcomes and quota decisions.
type BillingMetrics struct {
	paymentEventsReconciled *prometheus.CounterVec
	consumeDecisions        *prometheus.CounterVec
	checkoutSessions        *prometheus.CounterVec
}

// Reconciliation outcome labels.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billing"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	paymentEventsReconciled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billing_payment_events_reconciled_total",
			Help:        "Payment webhook deliveries by reconciliation outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // applied | ignored | duplicate | rejected | failed
	)

	consumeDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billing_consume_decisions_total",
			Help:        "Usage gate decisions.",
			ConstLabels: constLabels,
		},
		[]string{"decision"}, // allowed | denied
	)

	checkoutSessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billing_checkout_sessions_total",
			Help:        "Checkout session creations by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // created | failed
	)

	registerer.MustRegister(
		paymentEventsReconciled,
		consumeDecisions,
		checkoutSessions,
	)

	return &BillingMetrics{
		paymentEventsReconciled: paymentEventsReconciled,
		consumeDecisions:        consumeDecisions,
		checkoutSessions:        checkoutSessions,
	}
}

func (m *BillingMetrics) IncEventReconciled(outcome string) {
	if m == nil {
		return
	}
	m.paymentEventsReconciled.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) IncConsume(allowed bool) {
	if m == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.consumeDecisions.WithLabelValues(decision).Inc()
}

func (m *BillingMetrics) IncCheckoutSession(err error) {
	if m == nil {
		return
	}
	result := "created"
	if err != nil {
		result = "failed"
	}
	m.checkoutSessions.WithLabelValues(result).Inc()
}
