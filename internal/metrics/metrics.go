// Package metrics exposes engine-internal Prometheus collectors: queue
// depth per queue, GC sweep outcomes, and start-limit trips. Grounded on
// r3e-network-service_layer/pkg/metrics/metrics.go's package-level
// collector-var shape (a private Registry plus NewCounterVec/NewGaugeVec
// instances registered once at package init), adapted from that package's
// HTTP/function/oracle subsystems to the Unit Engine's queue/GC/start-limit
// ones.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the Unit Engine's own collectors, kept separate from the
// default global registry so embedding this engine in a larger process
// never collides with that process's own metric names.
var Registry = prometheus.NewRegistry()

var (
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "unitengine",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of units queued on each named queue.",
		},
		[]string{"queue"},
	)

	gcSweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unitengine",
			Subsystem: "gc",
			Name:      "sweeps_total",
			Help:      "Total number of garbage-collector sweep passes run.",
		},
	)

	gcCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unitengine",
			Subsystem: "gc",
			Name:      "units_collected_total",
			Help:      "Total number of units moved to the cleanup queue by a GC sweep.",
		},
	)

	startLimitTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitengine",
			Subsystem: "unit",
			Name:      "start_limit_trips_total",
			Help:      "Total number of start_limit exhaustions, by unit id.",
		},
		[]string{"unit"},
	)

	stopWhenUnneededTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitengine",
			Subsystem: "unit",
			Name:      "stop_when_unneeded_total",
			Help:      "Total number of automatic stop jobs submitted by the stop-when-unneeded queue.",
		},
		[]string{"unit"},
	)
)

func init() {
	Registry.MustRegister(queueDepth, gcSweeps, gcCollected, startLimitTrips, stopWhenUnneededTrips)
}

// SetQueueDepth records the current length of a named queue.
func SetQueueDepth(queue string, depth int) {
	queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordGCSweep records one sweep pass having collected n units.
func RecordGCSweep(collected int) {
	gcSweeps.Inc()
	if collected > 0 {
		gcCollected.Add(float64(collected))
	}
}

// RecordStartLimitTrip records a start_limit exhaustion for unitID.
func RecordStartLimitTrip(unitID string) {
	startLimitTrips.WithLabelValues(unitID).Inc()
}

// RecordStopWhenUnneeded records an automatic stop submission for unitID.
func RecordStopWhenUnneeded(unitID string) {
	stopWhenUnneededTrips.WithLabelValues(unitID).Inc()
}
