package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation paths reported by duesCreated.
const (
	pathSplit    = "split"
	pathSlot     = "slot"
	pathGenerate = "generate"
	pathImport   = "import"
)

var (
	duesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotisations",
		Name:      "dues_created_total",
		Help:      "Due records inserted, by allocation path.",
	}, []string{"path"})

	duePayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotisations",
		Name:      "due_payments_total",
		Help:      "Payment state transitions, by target state.",
	}, []string{"to"})

	importErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cotisations",
		Name:      "import_errors_total",
		Help:      "Rows or cells rejected during spreadsheet imports.",
	})
)
