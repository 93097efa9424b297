package telemetry

import (
	"railsim/core"
	"railsim/vehicle"
)

// VehicleSnapshot is one vehicle's externally-visible state.
type VehicleSnapshot struct {
	ID           int     `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Heading      float64 `json:"heading"`
	Velocity     float64 `json:"velocity"`
	CurrentEdge  int     `json:"currentEdge"`
	EdgeRatio    float64 `json:"edgeRatio"`
	MovingStatus uint8   `json:"movingStatus"`
	TrafficState uint8   `json:"trafficState"`
}

// WaiterSnapshot is one vehicle queued behind a merge node's holder.
type WaiterSnapshot struct {
	VehicleID int `json:"vehicleId"`
	Edge      int `json:"edge"`
}

// LockSnapshot is one merge node's lock state.
type LockSnapshot struct {
	Node            string           `json:"node"`
	HolderVehicleID int              `json:"holderVehicleId"`
	HolderEdge      int              `json:"holderEdge"`
	Waiters         []WaiterSnapshot `json:"waiters"`
}

// PathFinderStats is a JSON-friendly copy of pathfind.Stats (whose fields
// are unexported atomics and wouldn't marshal meaningfully on their own).
type PathFinderStats struct {
	Calls      int64 `json:"calls"`
	CacheHits  int64 `json:"cacheHits"`
	Failures   int64 `json:"failures"`
	TotalNanos int64 `json:"totalNanos"`
	MinNanos   int64 `json:"minNanos"`
	MaxNanos   int64 `json:"maxNanos"`
}

// Snapshot is one sample of an entire Fab's introspectable state.
type Snapshot struct {
	Tick       int               `json:"tick"`
	Vehicles   []VehicleSnapshot `json:"vehicles"`
	Locks      []LockSnapshot    `json:"locks"`
	PathFinder PathFinderStats   `json:"pathFinder"`
}

// BuildSnapshot samples fab's current state into a Snapshot.
func BuildSnapshot(fab *core.Fab) Snapshot {
	snap := Snapshot{
		Tick:     fab.TickCount(),
		Vehicles: make([]VehicleSnapshot, 0, fab.NumVehicles()),
	}

	fab.ForEachVehicle(func(id int, row *vehicle.Row) {
		snap.Vehicles = append(snap.Vehicles, VehicleSnapshot{
			ID:           id,
			X:            row.X,
			Y:            row.Y,
			Z:            row.Z,
			Heading:      row.Heading,
			Velocity:     row.Velocity,
			CurrentEdge:  int(row.CurrentEdge),
			EdgeRatio:    row.EdgeRatio,
			MovingStatus: uint8(row.MovingStatus),
			TrafficState: uint8(row.TrafficState),
		})
	})

	stats := fab.PathFinderStats()
	snap.PathFinder = PathFinderStats{
		Calls:      stats.Calls(),
		CacheHits:  stats.CacheHits(),
		Failures:   stats.Failures(),
		TotalNanos: stats.TotalDuration().Nanoseconds(),
		MinNanos:   stats.MinDuration().Nanoseconds(),
		MaxNanos:   stats.MaxDuration().Nanoseconds(),
	}

	for _, entry := range fab.LockSnapshot() {
		waiters := make([]WaiterSnapshot, 0, len(entry.Waiters))
		for _, w := range entry.Waiters {
			waiters = append(waiters, WaiterSnapshot{VehicleID: w.VehicleID, Edge: int(w.Edge)})
		}
		snap.Locks = append(snap.Locks, LockSnapshot{
			Node:            entry.Node,
			HolderVehicleID: entry.HolderVehicleID,
			HolderEdge:      int(entry.HolderEdge),
			Waiters:         waiters,
		})
	}

	return snap
}
