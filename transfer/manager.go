// Package transfer manages route assignment: the only component that
// writes a vehicle's path buffer, installs checkpoint lists, and wakes
// stopped vehicles onto a newly assigned route.
package transfer

import (
	"railsim/checkpoint"
	"railsim/config"
	"railsim/graph"
	"railsim/vehicle"
)

// Command is the runtime command surface: at most one of Path, NextEdge,
// or TargetRatio should be set; AssignCommand checks them in that priority
// order.
type Command struct {
	Path        []graph.EdgeID
	NextEdge    graph.EdgeID
	TargetRatio *float64
}

// Manager owns path-buffer writes and checkpoint installation for every
// vehicle in store.
type Manager struct {
	g             *graph.Graph
	store         *vehicle.Store
	builder       *checkpoint.Builder
	logger        config.Logger
	maxPathLength int
}

// NewManager returns a Manager wired to g, store, and builder. maxPathLength
// bounds how much of an assigned path is kept.
func NewManager(g *graph.Graph, store *vehicle.Store, builder *checkpoint.Builder, maxPathLength int, logger config.Logger) *Manager {
	if logger == nil {
		logger = config.NopLogger
	}
	if maxPathLength <= 0 {
		maxPathLength = vehicle.MaxPathBufferLen
	}
	if maxPathLength > vehicle.MaxPathBufferLen {
		maxPathLength = vehicle.MaxPathBufferLen
	}
	return &Manager{g: g, store: store, builder: builder, maxPathLength: maxPathLength, logger: logger}
}

// AssignCommand validates and installs cmd on vehicleID. Returns false if
// the command was dropped (validation failure or empty command); state is
// left untouched in that case.
func (m *Manager) AssignCommand(vehicleID int, cmd Command) bool {
	row := m.store.Row(vehicleID)

	switch {
	case len(cmd.Path) > 0:
		return m.installPath(vehicleID, row, cmd.Path)
	case cmd.NextEdge != graph.InvalidEdge:
		return m.installPath(vehicleID, row, []graph.EdgeID{cmd.NextEdge})
	case cmd.TargetRatio != nil:
		row.TargetRatio = *cmd.TargetRatio
		return true
	default:
		m.logger.Warnf("transfer: empty command for vehicle %d dropped", vehicleID)
		return false
	}
}

// installPath is the shared path of the multi-edge and single-next-edge
// command forms.
func (m *Manager) installPath(vehicleID int, row *vehicle.Row, path []graph.EdgeID) bool {
	if !m.validateConnected(row.CurrentEdge, path) {
		m.logger.Warnf("transfer: command for vehicle %d failed connectivity validation", vehicleID)
		return false
	}
	if len(path) > m.maxPathLength {
		path = path[:m.maxPathLength]
	}

	row.Path.Len = copy(row.Path.Edges[:], path)
	row.PathRemaining = row.Path.Len
	row.DestinationEdge = path[len(path)-1]
	m.populateLookahead(row, path)

	full := make([]graph.EdgeID, 0, len(path)+1)
	full = append(full, row.CurrentEdge)
	full = append(full, path...)
	cps := m.builder.Build(full)
	m.store.InstallCheckpoints(vehicleID, cps)

	if row.MovingStatus == vehicle.Stopped {
		row.MovingStatus = vehicle.Moving
	}
	return true
}

// populateLookahead fills next_edge_0..4 from the start of path, mirroring
// what a MOVE_PREPARE checkpoint would do, so a freshly assigned vehicle
// doesn't need to wait a tick for its first checkpoint to fire before it
// can move.
func (m *Manager) populateLookahead(row *vehicle.Row, path []graph.EdgeID) {
	filled := 0
	for ; filled < len(path) && filled < vehicle.MaxLookahead; filled++ {
		row.NextEdges[filled] = path[filled]
	}
	for j := filled; j < vehicle.MaxLookahead; j++ {
		row.NextEdges[j] = graph.InvalidEdge
	}
	if row.NextEdges[0] != graph.InvalidEdge {
		row.NextEdgeState = vehicle.Ready
	} else {
		row.NextEdgeState = vehicle.Empty
	}
}

// validateConnected checks outgoing-edge adjacency starting from current,
// through every consecutive pair in path.
func (m *Manager) validateConnected(current graph.EdgeID, path []graph.EdgeID) bool {
	prev := current
	for _, e := range path {
		if !containsEdge(m.g.NextOf(prev), e) {
			return false
		}
		prev = e
	}
	return true
}

func containsEdge(ids []graph.EdgeID, target graph.EdgeID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// ClearVehiclePath zeroes vehicleID's path, lookahead, and checkpoints.
// Kinematic state is left alone.
func (m *Manager) ClearVehiclePath(vehicleID int) {
	row := m.store.Row(vehicleID)
	row.Path = vehicle.PathBuffer{}
	for i := range row.NextEdges {
		row.NextEdges[i] = graph.InvalidEdge
	}
	row.NextEdgeState = vehicle.Empty
	row.PathRemaining = 0
	row.DestinationEdge = graph.InvalidEdge
	m.store.InstallCheckpoints(vehicleID, nil)
}

// OnPendingTransfer implements motion.TransferHooks. In this single-
// threaded core there is no separate transfer queue to enqueue onto —
// next_edge_state is already marked PENDING by the integrator itself; this
// hook exists so a future out-of-process transfer queue has a seam to hang
// off without touching the integrator.
func (m *Manager) OnPendingTransfer(vehicleID int) {}

// OnEdgeTransition implements motion.TransferHooks: shifts the path buffer
// left by one, dropping Edges[0] (the edge the vehicle has just entered),
// and updates PathRemaining to match.
func (m *Manager) OnEdgeTransition(vehicleID int, prevEdge, newEdge graph.EdgeID) {
	row := m.store.Row(vehicleID)
	if row.Path.Len == 0 {
		return
	}
	copy(row.Path.Edges[:row.Path.Len-1], row.Path.Edges[1:row.Path.Len])
	row.Path.Len--
	row.Path.Edges[row.Path.Len] = graph.InvalidEdge
	row.PathRemaining = row.Path.Len
}

// HasReservedPath reports whether vehicleID has a non-empty path buffer —
// the "no pending commands" test the Auto-Router uses to find idle
// vehicles.
func (m *Manager) HasReservedPath(vehicleID int) bool {
	return m.store.HasPath(vehicleID)
}

// NextCurveDistance scans the reserved path for the first curve edge, as a
// pure read over the path buffer, for callers outside motion that need the
// same lookahead query the integrator runs.
func (m *Manager) NextCurveDistance(vehicleID int) (graph.EdgeID, bool) {
	row := m.store.Row(vehicleID)
	for i := 0; i < row.Path.Len; i++ {
		e := m.g.Edge(row.Path.Edges[i])
		if e != nil && e.RailType.IsCurve() {
			return e.ID, true
		}
	}
	return graph.InvalidEdge, false
}
