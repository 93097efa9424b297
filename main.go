/*
railsim is a deterministic per-tick simulation core for a rail-bound fleet
of automated vehicles: a graph of directed rail edges, vehicles that move
along them by ratio, merge-node mutual exclusion, and a checkpoint-driven
control flow standing in for what would otherwise be per-vehicle coroutine
suspension. This binary wires the core up with a small demo track and
serves its introspection state over a websocket for a dashboard to watch,
but the core package is usable standalone by anything that builds a Graph
and drives Fab.Tick itself.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"railsim/autoroute"
	"railsim/config"
	"railsim/core"
	"railsim/graph"
	"railsim/telemetry"
)

var (
	cfgPath     *string
	addr        *string
	numVehicles *int
	seed        *int64
	tickRate    *float64
)

func init() {
	cfgPath = flag.String("config", "./config.yaml", "path to the tunables YAML file")
	addr = flag.String("addr", ":8080", "telemetry server listen address")
	numVehicles = flag.Int("vehicles", 4, "number of vehicles to simulate")
	seed = flag.Int64("seed", 1, "auto-router PRNG seed")
	tickRate = flag.Float64("tick-rate", 10, "simulation ticks per second")
	flag.Parse()
}

// buildDemoGraph constructs a small closed loop with one merge node,
// standing in for an edge/station map file parser: two on-ramps (A->M,
// B->M) join at merge node M, continue to C, and loop back to A.
func buildDemoGraph() (*graph.Graph, error) {
	edges := []*graph.Edge{
		{
			ID: 1, FromNode: "A", ToNode: "M", Distance: 10, RailType: graph.Linear,
			NextEdgeIDs:     []graph.EdgeID{3},
			RenderingPoints: []graph.RenderPoint{{X: 0, Y: 0}, {X: 10, Y: 0}},
		},
		{
			ID: 2, FromNode: "B", ToNode: "M", Distance: 10, RailType: graph.Linear,
			NextEdgeIDs:     []graph.EdgeID{3},
			RenderingPoints: []graph.RenderPoint{{X: 0, Y: 10}, {X: 10, Y: 0}},
		},
		{
			ID: 3, FromNode: "M", ToNode: "C", Distance: 10, RailType: graph.Linear,
			NextEdgeIDs:     []graph.EdgeID{4},
			RenderingPoints: []graph.RenderPoint{{X: 10, Y: 0}, {X: 20, Y: 0}},
		},
		{
			ID: 4, FromNode: "C", ToNode: "A", Distance: 20, RailType: graph.Linear,
			NextEdgeIDs:     []graph.EdgeID{1},
			RenderingPoints: []graph.RenderPoint{{X: 20, Y: 0}, {X: 0, Y: 0}},
		},
	}
	stations := []graph.Station{
		{Name: "dock-a", NearestEdgeID: 1},
		{Name: "dock-c", NearestEdgeID: 3},
	}
	return graph.Build(edges, stations)
}

func runApp() error {
	params, err := config.FromYaml(*cfgPath)
	if err != nil {
		fmt.Println("config: using defaults:", err)
		params = config.Defaults()
	}

	g, err := buildDemoGraph()
	if err != nil {
		return err
	}

	logger := config.NewStdLogger(log.Default())

	fab := core.NewFab(g, *numVehicles, params, *seed, logger)
	fab.SetMode(autoroute.AutoRoute)

	// Spread the fleet along the main loop, standing in for a vehicle
	// layout file.
	loop := []graph.EdgeID{1, 3, 4}
	for i := 0; i < fab.NumVehicles(); i++ {
		edge := loop[i%len(loop)]
		ratio := float64(i/len(loop)) * 0.25
		fab.PlaceVehicle(i, edge, ratio)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	telSrv := telemetry.NewServer(*addr, fab, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return telSrv.Run(groupCtx, 100*time.Millisecond)
	})
	group.Go(func() error {
		return runSimLoop(groupCtx, fab)
	})

	return group.Wait()
}

// runSimLoop drives fab.Tick at *tickRate Hz until ctx is canceled.
func runSimLoop(ctx context.Context, fab *core.Fab) error {
	dt := 1.0 / *tickRate
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fab.Tick(dt)
		}
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
