// Package vehicle is the per-vehicle state store: a dense, preallocated
// table of rows addressed by vehicle id. It owns no logic — it is the
// shared substrate every other component reads and writes.
package vehicle

import "railsim/graph"

// MovingStatus is the vehicle's kinematic state.
type MovingStatus uint8

const (
	Moving MovingStatus = iota
	Stopped
	Paused
)

// NextEdgeState tracks lookahead readiness.
type NextEdgeState uint8

const (
	Empty NextEdgeState = iota
	Pending
	Ready
)

// TrafficState tracks a vehicle's relationship to a merge lock.
type TrafficState uint8

const (
	Free TrafficState = iota
	Waiting
	Acquired
)

// StopReason is a bitset over why a vehicle is forced to zero velocity.
type StopReason uint8

const (
	Locked StopReason = 1 << iota
	Sensored
)

// HitZone values written by the (external) sensor subsystem. NoContact is
// the zero value, so a freshly allocated or Reset row starts with no sensor
// override in effect.
type HitZone int8

const (
	NoContact HitZone = iota
	Approach
	Brake
	Stop
)

// MaxPathBufferLen is the path buffer's fixed capacity.
const MaxPathBufferLen = 100

// MaxLookahead is the lookahead buffer's fixed capacity (next_edge_0..4).
const MaxLookahead = 5

// Destination describes a vehicle's current commanded target, for
// introspection's GetDestination.
type Destination struct {
	DestinationEdge graph.EdgeID
	PathRemaining   int
}
