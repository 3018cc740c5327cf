package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics tracks checkout throughput and allocation contention.
type CheckoutMetrics struct {
	attempts  prometheus.Counter
	confirmed prometheus.Counter
	rejected  *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout submissions received.",
	})
	confirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_confirmed_total",
		Help: "Checkouts that reached the confirmed state.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkouts rejected, labeled by rejection code.",
	}, []string{"code"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_conflicts_total",
		Help: "Allocation attempts retried due to concurrent contention.",
	})
	reg.MustRegister(attempts, confirmed, rejected, conflicts)
	return &CheckoutMetrics{
		attempts:  attempts,
		confirmed: confirmed,
		rejected:  rejected,
		conflicts: conflicts,
	}
}

// IncAttempt counts one checkout submission.
func (c *CheckoutMetrics) IncAttempt() {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.Inc()
}

// IncConfirmed counts one confirmed checkout.
func (c *CheckoutMetrics) IncConfirmed() {
	if c == nil || c.confirmed == nil {
		return
	}
	c.confirmed.Inc()
}

// IncRejected counts one rejected checkout under the given code.
func (c *CheckoutMetrics) IncRejected(code string) {
	if c == nil || c.rejected == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	c.rejected.WithLabelValues(code).Inc()
}

// IncConflict counts one contention retry.
func (c *CheckoutMetrics) IncConflict() {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.Inc()
}
