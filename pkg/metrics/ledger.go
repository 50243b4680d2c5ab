package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records counters for money-moving operations.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	undos        *prometheus.CounterVec
	transfers    prometheus.Histogram
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Recorded ledger transactions by type and entry method.",
	}, []string{"type", "method"})
	undos := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_undos_total",
		Help: "Undo attempts by outcome.",
	}, []string{"outcome"})
	transfers := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_transfers",
		Help:    "Number of transfers emitted per settlement computation.",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})
	reg.MustRegister(transactions, undos, transfers)
	return &LedgerMetrics{
		transactions: transactions,
		undos:        undos,
		transfers:    transfers,
	}
}

// IncTransaction increments the transaction counter for the given labels.
func (m *LedgerMetrics) IncTransaction(txType, method string) {
	if m == nil || m.transactions == nil {
		return
	}
	m.transactions.WithLabelValues(normalizeLabel(txType), normalizeLabel(method)).Inc()
}

// IncUndo increments the undo counter for the given outcome.
func (m *LedgerMetrics) IncUndo(outcome string) {
	if m == nil || m.undos == nil {
		return
	}
	m.undos.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveTransfers records how many transfers one settlement produced.
func (m *LedgerMetrics) ObserveTransfers(count int) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.Observe(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
