package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_stock_movements_total",
		Help: "Recorded stock movements by transaction type",
	}, []string{"type"})

	stockUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_stock_units_total",
		Help: "Units moved by transaction type",
	}, []string{"type"})

	itemOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_item_operations_total",
		Help: "Ledger operations by operation and status",
	}, []string{"operation", "status"})
)

// observe counts an operation outcome
func observe(operation string, err error) {
	status := "ok"
	switch {
	case err == nil:
	case IsValidation(err):
		status = "invalid"
	case IsNotFound(err):
		status = "not_found"
	case IsConflict(err):
		status = "conflict"
	default:
		status = "error"
	}
	itemOperationsTotal.WithLabelValues(operation, status).Inc()
}

func observeMovement(tx Transaction) {
	stockMovementsTotal.WithLabelValues(string(tx.Type)).Inc()
	stockUnitsTotal.WithLabelValues(string(tx.Type)).Add(float64(tx.Qty))
}
