// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "esplit"

// Metrics groups every collector. Build it once per registry.
type Metrics struct {
	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	SettlementTransfers prometheus.Histogram
	TransactionsTotal   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		SettlementTransfers: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Number of transfers in computed settlement plans.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		TransactionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "Transactions written to ledgers, by kind.",
		}, []string{"kind"}),
	}
}

// RecordTransaction counts one stored expense or settlement.
func (m *Metrics) RecordTransaction(kind string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(kind).Inc()
}

// ObservePlan records the size of a settlement plan.
func (m *Metrics) ObservePlan(transfers int) {
	if m == nil {
		return
	}
	m.SettlementTransfers.Observe(float64(transfers))
}
