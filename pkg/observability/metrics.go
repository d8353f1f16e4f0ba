package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated by the bridge and the commit pipeline.
type Metrics struct {
	bridgeCalls    *prometheus.CounterVec
	txnItems       *prometheus.CounterVec
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bridgeCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptbridge_bridge_calls_total",
				Help: "Total number of host function calls made by scripts",
			},
			[]string{"function"},
		),
		txnItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptbridge_transaction_items_total",
				Help: "Total number of mutation requests by op and resolved status",
			},
			[]string{"op", "status"},
		),
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptbridge_commits_total",
				Help: "Total number of transaction commits by result code",
			},
			[]string{"status"},
		),
		commitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scriptbridge_commit_duration_seconds",
				Help:    "Duration of transaction commits",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.bridgeCalls, m.txnItems, m.commits, m.commitDuration)
	}
	return m
}

// BridgeCall counts one host function invocation.
func (m *Metrics) BridgeCall(function string) {
	if m == nil {
		return
	}
	m.bridgeCalls.WithLabelValues(function).Inc()
}

// TransactionItem counts one mutation request.
func (m *Metrics) TransactionItem(op string, status int) {
	if m == nil {
		return
	}
	m.txnItems.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// Commit records the outcome and duration of one commit.
func (m *Metrics) Commit(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(strconv.Itoa(status)).Inc()
	m.commitDuration.Observe(elapsed.Seconds())
}
