package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy module.
type Metrics struct {
	PolicyUpdates  *prometheus.CounterVec
	AdminTransfers prometheus.Counter
	RejectedWrites *prometheus.CounterVec
}

// New creates and registers all policy module metrics.
func New() *Metrics {
	return &Metrics{
		PolicyUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "restgate_policy_updates_total",
			Help: "Total policy replacements by combination mode",
		}, []string{"mode"}),

		AdminTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "restgate_policy_admin_transfers_total",
			Help: "Total administrator transfers",
		}),

		RejectedWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "restgate_policy_rejected_writes_total",
			Help: "Total rejected policy mutations by error code",
		}, []string{"code"}),
	}
}

// IncrementPolicyUpdate records a successful policy replacement.
func (m *Metrics) IncrementPolicyUpdate(mode string) {
	if m != nil {
		m.PolicyUpdates.WithLabelValues(mode).Inc()
	}
}

// IncrementAdminTransfer records an administrator change.
func (m *Metrics) IncrementAdminTransfer() {
	if m != nil {
		m.AdminTransfers.Inc()
	}
}

// IncrementRejectedWrite records a rejected mutation.
func (m *Metrics) IncrementRejectedWrite(code string) {
	if m != nil {
		m.RejectedWrites.WithLabelValues(code).Inc()
	}
}
