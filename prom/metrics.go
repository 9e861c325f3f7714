package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive counts sessions with a signed-in user whose idle
	// deadline is running.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventcal_sessions_active",
		Help: "Number of signed-in sessions being watched for inactivity.",
	})

	// IdleLogouts counts sessions ended by the idle timeout.
	IdleLogouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventcal_idle_logouts_total",
		Help: "Total number of sessions logged out after the inactivity window.",
	})

	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_store_operations_total",
		Help: "Event store calls by backend, operation and result.",
	}, []string{"backend", "op", "result"})
)

// ObserveStore records one event store call.
func ObserveStore(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOps.WithLabelValues(backend, op, result).Inc()
}
