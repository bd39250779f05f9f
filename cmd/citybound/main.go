// Command citybound runs a small single-machine simulation host: it
// builds a lane network, drives it for a fixed number of ticks, and
// reports trip outcomes and runtime counters, mirroring the
// flag-driven, printf-reporting shape of cmd/sim while exercising this
// module's actor runtime instead of a consensus protocol.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/clock"
	"github.com/citybound/citybound/config"
	"github.com/citybound/citybound/geo"
	"github.com/citybound/citybound/id"
	applog "github.com/citybound/citybound/log"
	"github.com/citybound/citybound/metrics"
	"github.com/citybound/citybound/planning"
	"github.com/citybound/citybound/transport"
)

func main() {
	preset := flag.String("preset", string(config.PresetSmallTown), "config preset: small-town, city, or stress-test")
	ticks := flag.Int("ticks", 200, "number of simulated ticks to run")
	verbose := flag.Bool("verbose", false, "print a report line every tick instead of only at the end")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) while the simulation runs")
	production := flag.Bool("production", false, "use JSON production logging instead of colorized development logging")
	flag.Parse()

	logger := applog.NewDevelopment()
	if *production {
		logger = applog.NewProduction()
	}
	defer logger.Sync()

	cfg, err := config.NewBuilder().FromPreset(config.Preset(*preset)).Build()
	if err != nil {
		logger.Errorw("citybound: invalid configuration", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metricSet := metrics.New(reg)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		logger.Infow("citybound: serving metrics", "addr", *metricsAddr)
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Errorw("citybound: metrics server stopped", "err", err)
			}
		}()
	}

	sys := actor.NewSystem(id.MachineID(cfg.Machine), applog.Named(logger, "actor"))
	laneSw := actor.RegisterSwarm[transport.Lane](sys, transport.LaneType, 64)
	tripSw := transport.RegisterTripType(sys)
	transport.RegisterLaneHandlers(sys)
	transport.RegisterMicrotraffic(sys, cfg)

	plan := demoPlan()
	result := planning.Compile(plan)
	diff := planning.DiffPrototypes(planning.PlanResult{}, result)
	logger.Infow("citybound: compiled demo plan",
		"lanes", len(diff.ToConstruct), "gestures", len(plan))

	a := transport.SpawnAndConnect(sys, laneSw, transport.NewLane(straightPath(0, 50), false, nil))
	b := transport.SpawnAndConnect(sys, laneSw, transport.NewLane(straightPath(50, 100), false, nil))
	sys.ProcessAllMessages()

	tripID := transport.SpawnTrip(sys, tripSw,
		transport.Placement{Lane: a, Offset: 0},
		transport.Placement{Lane: b, Offset: 50},
		transport.Destination{NodeID: b},
		id.ID{},
	)

	clk := clock.New(idUnused())
	fmt.Printf("\n=== citybound simulation (%s preset) ===\n", *preset)
	fmt.Printf("ticks=%d peers=%d interior_v0=%.1f intersection_v0=%.1f\n\n",
		*ticks, cfg.PeerCount, cfg.InteriorIDM.V0, cfg.IntersectionIDM.V0)

	start := time.Now()
	var prevStats actor.Stats
	for i := 0; i < *ticks; i++ {
		clk.Advance(sys, clock.TicksPerSecond)
		sys.ProcessAllMessages()

		stats := sys.Stats()
		metricSet.ObserveStats(prevStats.TurnsRun, stats.TurnsRun, prevStats.PacketsIn, stats.PacketsIn,
			prevStats.PacketsOut, stats.PacketsOut, prevStats.Dropped, stats.Dropped)
		prevStats = stats

		if *verbose {
			fmt.Printf("tick %4d: turns=%d in=%d out=%d dropped=%d\n",
				i, stats.TurnsRun, stats.PacketsIn, stats.PacketsOut, stats.Dropped)
		}
	}

	tripState, ok := tripSw.At(tripID)
	fmt.Printf("\n=== Result ===\n")
	if ok {
		fmt.Printf("trip state=%d fate=%d\n", tripState.State, tripState.Fate)
	} else {
		fmt.Printf("trip no longer present (swarm slot recycled)\n")
	}
	fmt.Printf("wall-clock: %s\n", time.Since(start))
}

func straightPath(from, to float64) geo.LinePath {
	return geo.NewLinePath([]geo.Point{{X: from, Y: 0}, {X: to, Y: 0}})
}

// demoPlan is a small fixed plan exercising the prototype compiler's
// intersection-cutting and lane-trimming steps (spec.md §4.11): two
// gestures crossing once.
func demoPlan() planning.Plan {
	return planning.Plan{
		"main-street": {Points: []geo.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}, Intent: planning.IntentRoad},
		"cross-street": {Points: []geo.Point{{X: 50, Y: -50}, {X: 50, Y: 50}}, Intent: planning.IntentRoad},
	}
}

// idUnused picks an otherwise-unused message type id for Clock's Wake
// delivery; this demo never calls WakeUpIn, so no handler needs to be
// registered for it.
func idUnused() id.MessageTypeID { return 9999 }
