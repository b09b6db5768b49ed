package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instruments for the navigation loop. The loop tolerates a nil
// *Metrics so tests and metric-less runs skip registration entirely.
type Metrics struct {
	Cycles            prometheus.Counter
	StaleObservations prometheus.Counter
	Replans           prometheus.Counter
	CommandsSent      prometheus.Counter
	WaypointsVisited  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigator_cycles_total",
			Help: "Control cycles executed.",
		}),
		StaleObservations: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigator_stale_observations_total",
			Help: "Cycles skipped because the observation was stale or malformed.",
		}),
		Replans: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigator_replans_total",
			Help: "Route recomputations.",
		}),
		CommandsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigator_commands_sent_total",
			Help: "Motion commands transmitted to the simulator.",
		}),
		WaypointsVisited: factory.NewGauge(prometheus.GaugeOpts{
			Name: "navigator_waypoints_visited",
			Help: "Waypoints visited so far in the current run.",
		}),
	}
}
