// Package graph holds the immutable edge/node/station tables built once at
// init time: the rail network every other component reads from but none may
// mutate after Build returns.
package graph

import "math"

// RailType tags an edge's geometry. Any value other than Linear is a curve.
type RailType int

const (
	Linear RailType = iota
	CurveLeft
	CurveRight
)

// IsCurve reports whether rt is any non-linear variant.
func (rt RailType) IsCurve() bool {
	return rt != Linear
}

// EdgeID is a 1-based edge handle; 0 is the invalid sentinel.
type EdgeID int

// InvalidEdge is the zero-value sentinel meaning "no edge."
const InvalidEdge EdgeID = 0

// RenderPoint is an opaque polyline vertex carried through for position
// interpolation. The core never reads its fields directly.
type RenderPoint struct {
	X, Y, Z float64
}

// Edge is immutable after Build.
type Edge struct {
	ID       EdgeID
	FromNode string
	ToNode   string
	Distance float64 // meters

	RailType RailType
	Radius   float64 // meaningful only when RailType.IsCurve()

	// WaitingOffset is the distance (meters) before this edge's ToNode at
	// which a vehicle waiting on a lock must stop. Zero means "unset" —
	// callers should use DefaultWaitingOffset.
	WaitingOffset float64

	// NextEdgeIDs are the outgoing edges from ToNode, in declared order.
	NextEdgeIDs []EdgeID

	// ToNodeIsDiverge is true iff ToNode has more than one outgoing edge.
	ToNodeIsDiverge bool

	// DeadlockZoneInternal marks an edge as inside a designated
	// deadlock-breaking zone (see lock.Manager's zone-internal preemption
	// rule). Defaults false; the geometry that defines such zones lives
	// outside the core.
	DeadlockZoneInternal bool

	RenderingPoints []RenderPoint

	regionID int
}

// DefaultWaitingOffset is used when an edge's WaitingOffset is unset (zero).
const DefaultWaitingOffset = 1.89

// EffectiveWaitingOffset returns e.WaitingOffset, or DefaultWaitingOffset if unset.
func (e *Edge) EffectiveWaitingOffset() float64 {
	if e.WaitingOffset > 0 {
		return e.WaitingOffset
	}
	return DefaultWaitingOffset
}

// Interpolate maps a ratio in [0,1] along e to a world position and heading.
// The rendering polyline is opaque to every other component; this is the
// only function that reads RenderingPoints.
func (e *Edge) Interpolate(ratio float64) (x, y, z, heading float64) {
	pts := e.RenderingPoints
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	if len(pts) == 1 {
		p := pts[0]
		return p.X, p.Y, p.Z, 0
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	segCount := len(pts) - 1
	pos := ratio * float64(segCount)
	idx := int(pos)
	if idx >= segCount {
		idx = segCount - 1
	}
	frac := pos - float64(idx)

	a, b := pts[idx], pts[idx+1]
	x = a.X + (b.X-a.X)*frac
	y = a.Y + (b.Y-a.Y)*frac
	z = a.Z + (b.Z-a.Z)*frac
	heading = headingOf(a, b)
	return
}

func headingOf(a, b RenderPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx) * 180 / math.Pi
}
