// Package metrics wires simulation counters and gauges into
// prometheus.Registerer, the metrics library the teacher stack uses
// throughout for runtime observability.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is the simulation's metrics surface: one registry plus the
// handful of collectors every machine reports (actor system stats,
// turn timing, lane occupancy).
type Set struct {
	Registry prometheus.Registerer

	TurnsRun      prometheus.Counter
	PacketsIn     prometheus.Counter
	PacketsOut    prometheus.Counter
	PacketsDropped prometheus.Counter
	ActiveCars    prometheus.Gauge
	TripsFinished prometheus.Counter
	TripsFailed   prometheus.Counter
	TurnDuration  prometheus.Histogram
}

// New registers and returns a Set against reg. A nil reg falls back to
// prometheus.NewRegistry() so callers that don't care about exposing
// an HTTP endpoint still get working collectors.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Set{
		Registry: reg,
		TurnsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_turns_run_total",
			Help: "Total ProcessAllMessages turns run.",
		}),
		PacketsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_packets_in_total",
			Help: "Total packets delivered to a local inbox.",
		}),
		PacketsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_packets_out_total",
			Help: "Total packets forwarded to the networking layer.",
		}),
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_packets_dropped_total",
			Help: "Total packets dropped (stale version, unknown type, no handler).",
		}),
		ActiveCars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "citybound_active_cars",
			Help: "Cars and pedestrians currently on the lane network.",
		}),
		TripsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_trips_finished_total",
			Help: "Trips that reached Done with Success.",
		}),
		TripsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citybound_trips_failed_total",
			Help: "Trips that reached Done with a non-Success fate.",
		}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "citybound_turn_duration_seconds",
			Help:    "Wall-clock time to drain one outer-loop turn.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{
		s.TurnsRun, s.PacketsIn, s.PacketsOut, s.PacketsDropped,
		s.ActiveCars, s.TripsFinished, s.TripsFailed, s.TurnDuration,
	} {
		_ = reg.Register(c)
	}
	return s
}

// ObserveStats folds an actor.System snapshot (TurnsRun/PacketsIn/
// PacketsOut/Dropped counters) into the prometheus counters. Counters
// only go up, so this reports the delta since the previous snapshot.
func (s *Set) ObserveStats(prevTurns, turns, prevIn, in, prevOut, out, prevDropped, dropped uint64) {
	s.TurnsRun.Add(float64(turns - prevTurns))
	s.PacketsIn.Add(float64(in - prevIn))
	s.PacketsOut.Add(float64(out - prevOut))
	s.PacketsDropped.Add(float64(dropped - prevDropped))
}
