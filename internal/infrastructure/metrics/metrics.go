package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus business metrics. HTTP-level metrics live in
// the router middleware; these count domain operations.
type Metrics struct {
	// Loan lifecycle metrics
	LoansOriginated prometheus.Counter
	LoansLiquidated prometheus.Counter
	LoanErrors      *prometheus.CounterVec

	// Payment metrics
	PaymentsRecorded prometheus.Counter
	PaymentAmount    prometheus.Histogram
	PaymentDuration  prometheus.Histogram

	// Delinquency metrics
	DelinquenciesMarked   prometheus.Counter
	LitigationEscalations prometheus.Counter
	SweepDuration         prometheus.Histogram

	// Early payoff metrics
	EarlyPayoffsApplied prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		LoansOriginated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_loans_originated_total",
			Help: "Total number of loans originated",
		}),
		LoansLiquidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_loans_liquidated_total",
			Help: "Total number of loans fully liquidated",
		}),
		LoanErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_loan_errors_total",
				Help: "Total number of loan operation errors by operation",
			},
			[]string{"operation"},
		),

		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_payments_recorded_total",
			Help: "Total number of installment payments recorded",
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "financing_payment_amount_cents",
			Help:    "Recorded payment amounts in cents",
			Buckets: []float64{1000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		}),
		PaymentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "financing_payment_duration_seconds",
			Help:    "Duration of payment recording operations",
			Buckets: prometheus.DefBuckets,
		}),

		DelinquenciesMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_delinquencies_marked_total",
			Help: "Total number of installments marked delinquent",
		}),
		LitigationEscalations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_litigation_escalations_total",
			Help: "Total number of installments escalated to litigation",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "financing_delinquency_sweep_duration_seconds",
			Help:    "Duration of delinquency sweeps",
			Buckets: prometheus.DefBuckets,
		}),

		EarlyPayoffsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "financing_early_payoffs_applied_total",
			Help: "Total number of early payoffs applied",
		}),
	}
}
