package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts wizard transitions and order submissions.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_transitions_total",
		Help: "Checkout wizard transitions by destination step.",
	}, []string{"step"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"result"})
	reg.MustRegister(transitions, submissions)
	return &CheckoutMetrics{
		transitions: transitions,
		submissions: submissions,
	}
}

// IncTransition records entering the named step.
func (c *CheckoutMetrics) IncTransition(step string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncSubmission records a submission outcome ("success", "failure", "rejected").
func (c *CheckoutMetrics) IncSubmission(result string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
