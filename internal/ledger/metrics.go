package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCommitted  = "committed"
	outcomeAborted    = "aborted"
	outcomeFailed     = "failed"
	outcomeContention = "contention"
)

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Ledger transactions by final outcome",
		},
		[]string{"outcome"},
	)
	transactionAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_transaction_attempts",
			Help:    "Attempts needed per ledger transaction",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"outcome"},
	)
	transactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "Wall time of ledger transactions including retries",
			Buckets: prometheus.DefBuckets,
		},
	)
	conflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_conflicts_total",
			Help: "Stale read sets detected at commit",
		},
	)
)

func init() {
	prometheus.MustRegister(transactionsTotal, transactionAttempts, transactionDuration, conflictsTotal)
}

func observe(outcome string, attempts int, start time.Time) {
	transactionsTotal.WithLabelValues(outcome).Inc()
	transactionAttempts.WithLabelValues(outcome).Observe(float64(attempts))
	transactionDuration.Observe(time.Since(start).Seconds())
}
