package vehicle

import (
	"railsim/checkpoint"
	"railsim/graph"
)

// PathBuffer is a fixed-capacity array of up to MaxPathBufferLen edge ids,
// shifted left as edges are consumed (no wraparound). Len is the occupied
// length; Edges[0] is always the edge the vehicle should
// occupy next, never its current edge.
type PathBuffer struct {
	Len   int
	Edges [MaxPathBufferLen]graph.EdgeID
}

// Row is one vehicle's full record. Store holds a contiguous []Row indexed
// by vehicle id — a single contiguous slice rather than one slice per
// field, which keeps the bulk-iteration loop (motion integration, lock
// processing) a predictable single-stride walk without the bookkeeping of
// N parallel slices.
type Row struct {
	// Kinematics
	X, Y, Z, Heading float64
	Velocity         float64
	Acceleration     float64
	Deceleration     float64
	MovingStatus     MovingStatus

	// Position on graph
	CurrentEdge   graph.EdgeID
	EdgeRatio     float64
	NextEdges     [MaxLookahead]graph.EdgeID
	NextEdgeState NextEdgeState
	TargetRatio   float64

	// Path buffer
	Path PathBuffer

	// Checkpoint cursor
	CpHead      int
	CpCount     int
	Checkpoints [checkpoint.Capacity]checkpoint.Checkpoint
	Current     checkpoint.Checkpoint

	// Control state
	StopReason   StopReason
	TrafficState TrafficState

	// Sensor
	HitZone HitZone

	// Destination
	DestinationEdge graph.EdgeID
	PathRemaining   int

	// PreBraking is set while the vehicle is decelerating toward an
	// upcoming curve entry.
	PreBraking bool
}

// InstallCheckpoints loads cps into vehicle id's fixed checkpoint array and
// resets its cursor, truncating to Capacity (the Checkpoint Builder already
// truncates and warns; this is a defensive second guard for the store's
// fixed array size).
func (s *Store) InstallCheckpoints(id int, cps []checkpoint.Checkpoint) {
	row := &s.rows[id]
	row.Current = checkpoint.Checkpoint{}
	row.CpHead = 0
	row.CpCount = copy(row.Checkpoints[:], cps)
}

// Store is the dense per-vehicle table, sized to N vehicles at construction
// (the core doesn't support adding/removing vehicles at runtime — fleet
// size is fixed at init, matching "no dynamic graph mutation" for the
// analogous vehicle-set case).
type Store struct {
	rows []Row
}

// New allocates a Store for n vehicles, all rows zero-valued (no path, no
// current edge, no sensor contact).
func New(n int) *Store {
	return &Store{rows: make([]Row, n)}
}

// Len returns the number of vehicle rows.
func (s *Store) Len() int { return len(s.rows) }

// Row returns a pointer to vehicle id's row for direct field access — the
// column-store equivalent of per-field Get/Set, without forcing every
// caller through single-field accessor methods for a record this wide.
func (s *Store) Row(id int) *Row { return &s.rows[id] }

// ForEach visits every vehicle id in ascending order, the iteration order
// every per-tick pass uses.
func (s *Store) ForEach(fn func(id int, row *Row)) {
	for i := range s.rows {
		fn(i, &s.rows[i])
	}
}

// Reset zeroes vehicle id's row entirely.
func (s *Store) Reset(id int) {
	s.rows[id] = Row{}
}

// HasPath reports whether vehicle id has a non-empty path buffer.
func (s *Store) HasPath(id int) bool {
	return s.rows[id].Path.Len > 0
}
