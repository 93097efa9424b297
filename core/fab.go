// Package core ties every subsystem into one Fab instance: a single
// constructor wires the components together by reference, and Tick drives
// them once per simulation step in a fixed order.
package core

import (
	"railsim/autoroute"
	"railsim/checkpoint"
	"railsim/config"
	"railsim/graph"
	"railsim/lock"
	"railsim/motion"
	"railsim/pathfind"
	"railsim/transfer"
	"railsim/vehicle"
)

// Fab is one independent simulation instance. Multiple Fabs share nothing;
// every field here is exclusively owned by this Fab.
type Fab struct {
	g      *graph.Graph
	store  *vehicle.Store
	engine *pathfind.Engine
	locks  *lock.Manager
	motion *motion.Integrator
	router *autoroute.Router
	xfer   *transfer.Manager

	params config.TunableParams
	mode   autoroute.Mode
	tick   int
}

// NewFab constructs a Fab over g with numVehicles rows. seed drives the
// Auto-Router's PRNG deterministically.
func NewFab(g *graph.Graph, numVehicles int, params config.TunableParams, seed int64, logger config.Logger) *Fab {
	if logger == nil {
		logger = config.NopLogger
	}

	store := vehicle.New(numVehicles)
	builder := checkpoint.NewBuilder(g, checkpoint.Params{
		StraightRequestDistance:  params.StraightRequestDistance,
		CurveRequestDistance:     params.CurveRequestDistance,
		MaxCheckpointsPerVehicle: params.MaxCheckpointsPerVehicle,
	}, logger)

	xfer := transfer.NewManager(g, store, builder, params.MaxPathLength, logger)
	locks := lock.NewManager(g, logger)
	integrator := motion.NewIntegrator(g, locks, params, xfer)
	engine := pathfind.New(g, params.PathCacheCapacity)
	router := autoroute.NewRouter(g, engine, xfer, store, seed, params.MaxPathFindsPerFrame, params.MaxAttempts, logger)

	return &Fab{
		g:      g,
		store:  store,
		engine: engine,
		locks:  locks,
		motion: integrator,
		router: router,
		xfer:   xfer,
		params: params,
		mode:   autoroute.Manual,
	}
}

// SetMode switches the Auto-Router on or off.
func (f *Fab) SetMode(mode autoroute.Mode) { f.mode = mode }

// Mode returns the Auto-Router's current mode.
func (f *Fab) Mode() autoroute.Mode { return f.mode }

// Tick advances the whole Fab by dt seconds: auto-routing, lock
// processing, then motion. dt is clamped to MaxDelta if one is set.
func (f *Fab) Tick(dt float64) {
	if f.params.MaxDelta > 0 && dt > f.params.MaxDelta {
		dt = f.params.MaxDelta
	}

	// 1. Auto-Router assigns idle vehicles a path via the Transfer Manager.
	f.router.UpdateAll(f.mode)

	// 2 & 3. Lock Manager's auto-release sweep, then per-vehicle
	// checkpoint flag processing.
	f.locks.UpdateAll(f.store)

	// 4. Motion Integrator advances kinematics and edge transitions,
	// invoking the Transfer Manager's hooks inline for step 5 — there is no
	// separate queue to drain afterward since the core is single-threaded
	// cooperative within a tick.
	f.motion.UpdateAll(f.store, dt, f.tick)

	f.tick++
}

// NumVehicles returns the Fab's fixed vehicle count.
func (f *Fab) NumVehicles() int { return f.store.Len() }

// TickCount returns how many times Tick has completed.
func (f *Fab) TickCount() int { return f.tick }

// PlaceVehicle sets vehicleID's initial position. Intended for init-time
// placement from a vehicle layout file; it does not clear any assigned path.
func (f *Fab) PlaceVehicle(vehicleID int, edge graph.EdgeID, ratio float64) {
	row := f.store.Row(vehicleID)
	row.CurrentEdge = edge
	row.EdgeRatio = ratio
	if e := f.g.Edge(edge); e != nil {
		row.X, row.Y, row.Z, row.Heading = e.Interpolate(ratio)
	}
}

// AssignCommand is the runtime command surface, forwarded to the Transfer
// Manager.
func (f *Fab) AssignCommand(vehicleID int, cmd transfer.Command) bool {
	return f.xfer.AssignCommand(vehicleID, cmd)
}

// ClearVehiclePath forwards to the Transfer Manager.
func (f *Fab) ClearVehiclePath(vehicleID int) {
	f.xfer.ClearVehiclePath(vehicleID)
}

// Graph exposes the Fab's read-only graph, for callers building commands
// from edge names resolved elsewhere.
func (f *Fab) Graph() *graph.Graph { return f.g }

// VehicleRow exposes direct read access to one vehicle's row, for callers
// wiring telemetry snapshots without duplicating the Store's shape.
func (f *Fab) VehicleRow(vehicleID int) *vehicle.Row {
	return f.store.Row(vehicleID)
}

// ForEachVehicle visits every vehicle row in ascending id order.
func (f *Fab) ForEachVehicle(fn func(id int, row *vehicle.Row)) {
	f.store.ForEach(fn)
}
