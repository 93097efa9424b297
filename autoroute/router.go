// Package autoroute keeps idle vehicles busy: a bounded per-tick scan that
// finds vehicles with no pending commands and sends each toward a random
// station in its region. The scan is sequential and budget-bounded; the
// tick model leaves no room for spawning goroutines here.
package autoroute

import (
	"math/rand"

	"railsim/config"
	"railsim/graph"
	"railsim/pathfind"
	"railsim/transfer"
	"railsim/vehicle"
)

// Mode selects whether the Auto-Router runs at all this tick.
type Mode int

const (
	Manual Mode = iota
	AutoRoute
)

// Router scans for idle vehicles and assigns them a random in-region
// destination, bounded by a per-tick path-finding budget.
type Router struct {
	g        *graph.Graph
	engine   *pathfind.Engine
	transfer *transfer.Manager
	store    *vehicle.Store
	rng      *rand.Rand
	logger   config.Logger

	cursor       int
	maxPathFinds int
	maxAttempts  int
}

// NewRouter returns a Router with its own PRNG seeded from seed. The
// package-global math/rand source is never used — it would leak state
// across fab instances and break run-to-run reproducibility.
func NewRouter(g *graph.Graph, engine *pathfind.Engine, tm *transfer.Manager, store *vehicle.Store, seed int64, maxPathFinds, maxAttempts int, logger config.Logger) *Router {
	if maxPathFinds <= 0 {
		maxPathFinds = 10
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if logger == nil {
		logger = config.NopLogger
	}
	return &Router{
		g:            g,
		engine:       engine,
		transfer:     tm,
		store:        store,
		rng:          rand.New(rand.NewSource(seed)),
		logger:       logger,
		maxPathFinds: maxPathFinds,
		maxAttempts:  maxAttempts,
	}
}

// UpdateAll runs one tick of auto-routing if mode is AutoRoute; a no-op
// otherwise.
func (r *Router) UpdateAll(mode Mode) {
	if mode != AutoRoute {
		return
	}
	n := r.store.Len()
	if n == 0 {
		return
	}

	findsUsed := 0
	vehID := r.cursor % n

	for visited := 0; visited < n && findsUsed < r.maxPathFinds; visited++ {
		row := r.store.Row(vehID)

		if !r.transfer.HasReservedPath(vehID) {
			findsUsed += r.tryAssign(vehID, row, r.maxPathFinds-findsUsed)
		}

		vehID = (vehID + 1) % n
	}
	r.cursor = vehID
}

// tryAssign attempts up to maxAttempts random-station routes for vehID,
// stopping early on the first success or once budget path-find calls are
// spent (the tick's remaining frame budget, which one vehicle's retries
// must not overrun). Returns the number of shortest_path calls consumed.
func (r *Router) tryAssign(vehID int, row *vehicle.Row, budget int) int {
	used := 0
	for attempt := 0; attempt < r.maxAttempts && used < budget; attempt++ {
		stations := r.g.StationsInRegion(row.CurrentEdge)
		if len(stations) == 0 {
			return used
		}
		st := stations[r.rng.Intn(len(stations))]
		if st.NearestEdgeID == row.CurrentEdge {
			continue // doesn't consume a shortest_path call
		}

		path, ok := r.engine.ShortestPath(row.CurrentEdge, st.NearestEdgeID)
		used++
		if !ok {
			continue
		}
		if len(path) < 2 {
			continue
		}
		if !r.transfer.AssignCommand(vehID, transfer.Command{Path: path[1:]}) {
			r.logger.Warnf("autoroute: vehicle %d rejected auto-assigned path to station %q", vehID, st.Name)
			continue
		}
		return used
	}
	return used
}
