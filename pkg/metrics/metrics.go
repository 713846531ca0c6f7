package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the wallet engine.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
	FlaggedTotal    prometheus.Counter
	OperationAmount *prometheus.CounterVec
	Registry        *prometheus.Registry
}

// New creates and registers the wallet engine collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operations_total",
				Help: "Total wallet operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		FlaggedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_fraud_flags_total",
				Help: "Total wallets flagged by the fraud scorer",
			},
		),
		OperationAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operation_amount_total",
				Help: "Summed amounts moved per operation type, in the smallest currency unit",
			},
			[]string{"operation"},
		),
		Registry: prometheus.NewRegistry(),
	}

	m.Registry.MustRegister(m.OperationsTotal, m.FlaggedTotal, m.OperationAmount)
	return m
}

// ObserveOperation records one wallet operation result.
func (m *Metrics) ObserveOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveAmount records the amount moved by a committed operation.
func (m *Metrics) ObserveAmount(operation string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	m.OperationAmount.WithLabelValues(operation).Add(float64(amount))
}
