package lock

import (
	"railsim/checkpoint"
	"railsim/config"
	"railsim/graph"
	"railsim/vehicle"
)

// catchUpLimit bounds the per-vehicle checkpoint processing loop, so a
// vehicle that overflew several short edges in one tick catches up on a
// bounded number of missed checkpoints per call.
const catchUpLimit = 10

// Manager owns every merge node's lock state and the pending-release
// registry. One Manager per Fab; nothing here is safe for concurrent use
// across goroutines, matching the single-threaded-cooperative-tick model.
type Manager struct {
	g       *graph.Graph
	nodes   map[string]*nodeState
	pending []pendingRelease
	logger  config.Logger
}

// NewManager returns a Manager over g with empty lock state.
func NewManager(g *graph.Graph, logger config.Logger) *Manager {
	if logger == nil {
		logger = config.NopLogger
	}
	return &Manager{g: g, nodes: make(map[string]*nodeState), logger: logger}
}

func (m *Manager) node(name string) *nodeState {
	n, ok := m.nodes[name]
	if !ok {
		n = &nodeState{}
		m.nodes[name] = n
	}
	return n
}

// Holder returns the vehicle id currently holding node, or NoHolder.
// Introspection-only; never called from the per-tick algorithm itself.
func (m *Manager) Holder(node string) int {
	n, ok := m.nodes[node]
	if !ok {
		return NoHolder
	}
	return n.holder()
}

// Queue returns a copy of node's current wait queue (holder first).
func (m *Manager) Queue(node string) []int {
	n, ok := m.nodes[node]
	if !ok {
		return nil
	}
	out := make([]int, len(n.queue))
	copy(out, n.queue)
	return out
}

// UpdateAll runs one tick's worth of lock processing: the auto-release
// sweep, then per-vehicle checkpoint processing in ascending vehicle id
// order.
func (m *Manager) UpdateAll(store *vehicle.Store) {
	m.autoReleaseSweep(store)
	for id := 0; id < store.Len(); id++ {
		m.processVehicle(id, store.Row(id), store)
	}
}

// autoReleaseSweep releases or cancels every pending entry whose vehicle
// has reached its trigger edge.
func (m *Manager) autoReleaseSweep(store *vehicle.Store) {
	remaining := m.pending[:0]
	for _, pr := range m.pending {
		row := store.Row(pr.vehicleID)
		if row.CurrentEdge != pr.triggerEdge {
			remaining = append(remaining, pr)
			continue
		}
		n := m.node(pr.node)
		if n.holder() == pr.vehicleID {
			n.removeHead(pr.vehicleID)
		} else {
			n.remove(pr.vehicleID)
		}
	}
	m.pending = remaining
}

// processVehicle runs the bounded catch-up loop for one vehicle.
func (m *Manager) processVehicle(id int, row *vehicle.Row, store *vehicle.Store) {
	for iter := 0; iter < catchUpLimit; iter++ {
		if row.Current.IsZero() {
			if !m.loadNext(row) {
				return
			}
		}
		cp := row.Current

		switch {
		case row.CurrentEdge != cp.Edge && m.inPathBuffer(row, cp.Edge):
			return // waiting

		case row.CurrentEdge != cp.Edge && !m.inPathBuffer(row, cp.Edge):
			m.executeMissed(id, row, store)
			if !m.loadNext(row) {
				return
			}
			continue

		case row.CurrentEdge == cp.Edge && row.EdgeRatio < cp.Ratio:
			return // ahead of cursor

		default: // hit
			if m.executeHit(id, row, store) {
				if !m.loadNext(row) {
					return
				}
				continue
			}
			return // LOCK_WAIT still blocking; re-evaluate next tick
		}
	}
}

// loadNext advances row's checkpoint cursor, reporting whether a checkpoint
// was available to load.
func (m *Manager) loadNext(row *vehicle.Row) bool {
	if row.CpHead >= row.CpCount {
		row.Current = checkpoint.Checkpoint{}
		return false
	}
	row.Current = row.Checkpoints[row.CpHead]
	row.CpHead++
	return true
}

// inPathBuffer reports whether edge still appears in row's remaining path.
func (m *Manager) inPathBuffer(row *vehicle.Row, edge graph.EdgeID) bool {
	for i := 0; i < row.Path.Len; i++ {
		if row.Path.Edges[i] == edge {
			return true
		}
	}
	return false
}

// executeHit processes every set flag on row.Current in declared order,
// bit-clearing each as it's handled, and reports whether all flags ended up
// cleared (LOCK_WAIT may leave its bit set to re-evaluate next tick).
func (m *Manager) executeHit(id int, row *vehicle.Row, store *vehicle.Store) bool {
	cp := &row.Current
	allCleared := true

	if cp.Flags.Has(checkpoint.MovePrepare) {
		m.processMovePrepare(row, cp.TargetEdge)
		cp.Flags &^= checkpoint.MovePrepare
	}
	if cp.Flags.Has(checkpoint.LockRelease) {
		m.processLockRelease(id, row)
		cp.Flags &^= checkpoint.LockRelease
	}
	if cp.Flags.Has(checkpoint.LockRequest) {
		m.processLockRequest(id, row, cp.TargetEdge)
		cp.Flags &^= checkpoint.LockRequest
	}
	if cp.Flags.Has(checkpoint.LockWait) {
		if m.processLockWait(id, row, cp.TargetEdge, store) {
			cp.Flags &^= checkpoint.LockWait
		} else {
			allCleared = false
		}
	}
	return allCleared
}

// executeMissed runs the catch-up subset of flag processing: everything
// except LockWait, which is dropped — the vehicle already passed the wait
// point.
func (m *Manager) executeMissed(id int, row *vehicle.Row, store *vehicle.Store) {
	cp := &row.Current

	if cp.Flags.Has(checkpoint.MovePrepare) {
		m.processMovePrepare(row, cp.TargetEdge)
		cp.Flags &^= checkpoint.MovePrepare
	}
	if cp.Flags.Has(checkpoint.LockRelease) {
		m.processLockRelease(id, row)
		cp.Flags &^= checkpoint.LockRelease
	}
	if cp.Flags.Has(checkpoint.LockRequest) {
		m.processLockRequest(id, row, cp.TargetEdge)
		cp.Flags &^= checkpoint.LockRequest
	}
	cp.Flags &^= checkpoint.LockWait
}

// processMovePrepare populates next_edge_0..4 from the path buffer up to and
// including target, zeroing the remainder, and sets next_edge_state.
func (m *Manager) processMovePrepare(row *vehicle.Row, target graph.EdgeID) {
	filled := 0
	for ; filled < row.Path.Len && filled < vehicle.MaxLookahead; filled++ {
		e := row.Path.Edges[filled]
		row.NextEdges[filled] = e
		if e == target {
			filled++
			break
		}
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

// processLockRelease releases id's hold on its current edge's to_node, if
// id is in fact the holder there, and promotes the new head.
func (m *Manager) processLockRelease(id int, row *vehicle.Row) {
	if m.Release(id, row.CurrentEdge) {
		row.TrafficState = vehicle.Free
	}
}

// Release is also the Motion Integrator's edge-transition release hook:
// called when a vehicle leaves an edge whose to_node is a merge. Reports
// whether id was in fact released.
func (m *Manager) Release(id int, edge graph.EdgeID) bool {
	e := m.g.Edge(edge)
	if e == nil || !m.g.IsMergeNode(e.ToNode) {
		return false
	}
	n := m.node(e.ToNode)
	if n.holder() == id {
		n.removeHead(id)
		return true
	}
	return false
}

// processLockRequest enqueues id at target's from_node if it's a merge,
// registering the matching auto-release entry.
func (m *Manager) processLockRequest(id int, row *vehicle.Row, target graph.EdgeID) {
	te := m.g.Edge(target)
	if te == nil || !m.g.IsMergeNode(te.FromNode) {
		return
	}
	node := te.FromNode
	n := m.node(node)
	if wasEmpty := n.enqueue(id); wasEmpty {
		row.TrafficState = vehicle.Acquired
	} else {
		row.TrafficState = vehicle.Waiting
	}
	m.pending = append(m.pending, pendingRelease{vehicleID: id, node: node, triggerEdge: target})
}

// processLockWait evaluates whether id may proceed past target's from_node,
// applying a forced stop when a different vehicle holds it. Reports whether
// the flag should be cleared.
func (m *Manager) processLockWait(id int, row *vehicle.Row, target graph.EdgeID, store *vehicle.Store) bool {
	te := m.g.Edge(target)
	if te == nil || !m.g.IsMergeNode(te.FromNode) {
		return true
	}
	n := m.node(te.FromNode)
	h := n.holder()

	if h != NoHolder && h != id {
		if m.eligibleForPreemption(id, row, h, store) {
			n.preempt(id)
			row.StopReason &^= vehicle.Locked
			row.MovingStatus = vehicle.Moving
			row.TrafficState = vehicle.Acquired
			return true
		}
		row.Velocity = 0
		row.MovingStatus = vehicle.Stopped
		row.StopReason |= vehicle.Locked
		row.TrafficState = vehicle.Waiting
		return false
	}

	row.StopReason &^= vehicle.Locked
	row.MovingStatus = vehicle.Moving
	row.TrafficState = vehicle.Acquired
	return true
}

// eligibleForPreemption applies the deadlock-zone rule: a vehicle may jump
// the queue only if it is physically on a designated deadlock-zone-internal
// edge and the current holder is not.
func (m *Manager) eligibleForPreemption(_ int, row *vehicle.Row, holderID int, store *vehicle.Store) bool {
	selfEdge := m.g.Edge(row.CurrentEdge)
	if selfEdge == nil || !selfEdge.DeadlockZoneInternal {
		return false
	}
	holderRow := store.Row(holderID)
	holderEdge := m.g.Edge(holderRow.CurrentEdge)
	return holderEdge == nil || !holderEdge.DeadlockZoneInternal
}
