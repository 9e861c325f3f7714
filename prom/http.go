// Package prom contains prometheus metrics exported by eventcal.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns a handler that exports metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentHandler decorates an HTTP handler with prometheus metrics jazz.
func InstrumentHandler(name string, handler http.Handler) http.Handler {
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "eventcal_requests_in_flight",
		Help:        "Number of requests currently being served by the handler.",
		ConstLabels: prometheus.Labels{"handler": name},
	})
	inFlight = promRegister(inFlight).(prometheus.Gauge)
	handler = promhttp.InstrumentHandlerInFlight(inFlight, handler)

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "eventcal_requests_total",
			Help:        "Total number of requests for the handler.",
			ConstLabels: prometheus.Labels{"handler": name},
		},
		[]string{"code"},
	)
	counter = promRegister(counter).(*prometheus.CounterVec)
	handler = promhttp.InstrumentHandlerCounter(counter, handler)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "eventcal_response_duration_seconds",
			Help:        "A histogram of request latencies.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"handler": name},
		},
		[]string{},
	)
	duration = promRegister(duration).(*prometheus.HistogramVec)
	handler = promhttp.InstrumentHandlerDuration(duration, handler)

	return handler
}

// promRegister registers c, returning the collector that was registered
// first if one with the same description already exists. Handlers are built
// once per server and tests build many servers in one process.
func promRegister(c prometheus.Collector) prometheus.Collector {
	err := prometheus.Register(c)
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector
	}
	if err != nil {
		panic(err)
	}
	return c
}
