package core

import (
	"railsim/graph"
	"railsim/pathfind"
	"railsim/vehicle"
)

// GetDestination reports vehicleID's current commanded destination and how
// much path remains.
func (f *Fab) GetDestination(vehicleID int) vehicle.Destination {
	row := f.store.Row(vehicleID)
	return vehicle.Destination{
		DestinationEdge: row.DestinationEdge,
		PathRemaining:   row.PathRemaining,
	}
}

// Waiter is one vehicle queued behind a merge node's holder.
type Waiter struct {
	VehicleID int
	Edge      graph.EdgeID
}

// LockSnapshotEntry is one merge node's lock state.
type LockSnapshotEntry struct {
	Node            string
	HolderVehicleID int // -1 if unheld
	HolderEdge      graph.EdgeID
	Waiters         []Waiter
}

// LockSnapshot returns one entry per merge node in the graph, holder first.
func (f *Fab) LockSnapshot() []LockSnapshotEntry {
	nodes := f.g.MergeNodes()
	out := make([]LockSnapshotEntry, 0, len(nodes))

	for _, node := range nodes {
		entry := LockSnapshotEntry{Node: node, HolderVehicleID: -1, HolderEdge: graph.InvalidEdge}

		q := f.locks.Queue(node)
		if len(q) > 0 {
			holderID := q[0]
			entry.HolderVehicleID = holderID
			entry.HolderEdge = f.store.Row(holderID).CurrentEdge
			entry.Waiters = make([]Waiter, 0, len(q)-1)
			for _, w := range q[1:] {
				entry.Waiters = append(entry.Waiters, Waiter{VehicleID: w, Edge: f.store.Row(w).CurrentEdge})
			}
		}
		out = append(out, entry)
	}
	return out
}

// PathFinderStats returns the Shortest-Path Engine's advisory counters.
func (f *Fab) PathFinderStats() *pathfind.Stats {
	return f.engine.Stats()
}
