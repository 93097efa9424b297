// Package motion advances vehicle kinematics one tick at a time: speed and
// ratio integration, edge transitions, and the throttled curve pre-brake
// scan. It is the only component that moves a vehicle; everything else
// either reads position or sets the flags (hit zone, lock stop) that steer
// it.
package motion

import (
	"railsim/config"
	"railsim/graph"
	"railsim/lock"
	"railsim/vehicle"
)

// TransferHooks lets the integrator notify the Transfer Manager without an
// import cycle (transfer owns the path buffer's authoritative bookkeeping;
// motion only shifts its own copy and reports what happened).
type TransferHooks interface {
	// OnPendingTransfer fires when a vehicle's ratio first crosses into
	// transfer-pending territory with no lookahead loaded yet.
	OnPendingTransfer(vehicleID int)
	// OnEdgeTransition fires once per edge boundary crossed this tick; the
	// implementer is responsible for shifting the path buffer and any
	// reservation bookkeeping tied to prevEdge.
	OnEdgeTransition(vehicleID int, prevEdge, newEdge graph.EdgeID)
}

// Integrator advances every moving vehicle's kinematics one tick at a time.
type Integrator struct {
	g      *graph.Graph
	locks  *lock.Manager
	params config.TunableParams
	hooks  TransferHooks
}

// NewIntegrator returns an Integrator wired to g's geometry, locks' release
// hook, and the given tunables. hooks may be nil in tests that don't care
// about transfer notifications.
func NewIntegrator(g *graph.Graph, locks *lock.Manager, params config.TunableParams, hooks TransferHooks) *Integrator {
	return &Integrator{g: g, locks: locks, params: params, hooks: hooks}
}

// UpdateAll advances every MOVING vehicle in store by dt, in ascending
// vehicle id order, then runs the throttled curve pre-brake scan. tick is
// the fab's monotonic tick counter, used only to phase-stagger the pre-brake
// scan across vehicles.
func (in *Integrator) UpdateAll(store *vehicle.Store, dt float64, tick int) {
	for id := 0; id < store.Len(); id++ {
		in.updateOne(id, store.Row(id), dt)
		in.updatePreBrake(id, store.Row(id), tick)
	}
}

func (in *Integrator) updateOne(id int, row *vehicle.Row, dt float64) {
	if row.MovingStatus != vehicle.Moving {
		return
	}
	edge := in.g.Edge(row.CurrentEdge)
	if edge == nil {
		return
	}

	accel := in.selectAccel(row, edge)
	if row.HitZone >= vehicle.Approach {
		accel = -in.params.LinearDeceleration
	}
	if row.HitZone == vehicle.Stop {
		row.Velocity = 0
		row.Acceleration = 0
		row.StopReason |= vehicle.Sensored
		in.interpolate(row)
		return
	}
	row.StopReason &^= vehicle.Sensored

	vmax := in.params.LinearMaxSpeed
	if edge.RailType.IsCurve() {
		vmax = in.params.CurveMaxSpeed
	}
	vNext := clamp(row.Velocity+accel*dt, 0, vmax)
	ratioNext := row.EdgeRatio + safeDiv(vNext*dt, edge.Distance)

	// Request the next edge as soon as this one is entered.
	if ratioNext >= 0.0 && row.NextEdgeState == vehicle.Empty {
		row.NextEdgeState = vehicle.Pending
		if in.hooks != nil {
			in.hooks.OnPendingTransfer(id)
		}
	}

	for ratioNext >= 1.0 {
		overflow := (ratioNext - 1) * edge.Distance

		if row.NextEdgeState != vehicle.Ready || row.NextEdges[0] == graph.InvalidEdge {
			ratioNext = 1.0
			break
		}

		prevEdge := row.CurrentEdge
		nextID := row.NextEdges[0]
		nextEdge := in.g.Edge(nextID)
		if nextEdge == nil {
			ratioNext = 1.0
			break
		}

		row.CurrentEdge = nextID
		ratioNext = safeDiv(overflow, nextEdge.Distance)

		copy(row.NextEdges[:vehicle.MaxLookahead-1], row.NextEdges[1:])
		row.NextEdges[vehicle.MaxLookahead-1] = graph.InvalidEdge
		if row.NextEdges[0] == graph.InvalidEdge {
			row.NextEdgeState = vehicle.Empty
		}

		row.TrafficState = vehicle.Free
		row.StopReason &^= vehicle.Locked
		if in.locks != nil {
			in.locks.Release(id, prevEdge)
		}

		if in.hooks != nil {
			in.hooks.OnEdgeTransition(id, prevEdge, nextID)
		}
		edge = nextEdge
	}

	row.EdgeRatio = ratioNext
	row.Velocity = vNext
	row.Acceleration = accel
	in.interpolate(row)
}

// selectAccel picks the base effective acceleration before hit-zone
// overrides are applied.
func (in *Integrator) selectAccel(row *vehicle.Row, edge *graph.Edge) float64 {
	if row.PreBraking {
		return -in.params.LinearPreBrakeDeceleration
	}
	if edge.RailType.IsCurve() {
		return in.params.CurveAcceleration
	}
	return in.params.LinearAcceleration
}

// interpolate writes row's world position and heading from its current
// (edge, ratio).
func (in *Integrator) interpolate(row *vehicle.Row) {
	edge := in.g.Edge(row.CurrentEdge)
	if edge == nil {
		return
	}
	x, y, z, heading := edge.Interpolate(row.EdgeRatio)
	row.X, row.Y, row.Z, row.Heading = x, y, z, heading
}

// updatePreBrake runs the throttled curve pre-brake scan: every
// CurvePreBrakeCheckInterval ticks, phase staggered by vehicle id so not
// every vehicle re-scans on the same tick.
func (in *Integrator) updatePreBrake(id int, row *vehicle.Row, tick int) {
	interval := in.params.CurvePreBrakeCheckInterval
	if interval <= 0 {
		interval = 10
	}

	if edgeIsCurve(in.g, row.CurrentEdge) {
		// Already on the curve: stop treating this as a pre-brake approach
		// regardless of cadence, so selectAccel switches to curve_acceleration.
		row.PreBraking = false
		return
	}

	if (tick+id)%interval != 0 {
		return
	}

	distToCurve, foundCurve := in.distanceToNextCurve(row)
	if !foundCurve || row.Velocity <= in.params.CurveMaxSpeed {
		row.PreBraking = false
		return
	}

	decel := in.params.LinearPreBrakeDeceleration
	if decel <= 0 {
		row.PreBraking = false
		return
	}
	neededDist := (row.Velocity*row.Velocity - in.params.CurveMaxSpeed*in.params.CurveMaxSpeed) / (2 * decel)
	row.PreBraking = distToCurve <= neededDist
}

// distanceToNextCurve sums remaining distance on the current edge plus the
// reserved lookahead until a curve edge is found, reporting false if none
// appears within MaxLookahead edges.
func (in *Integrator) distanceToNextCurve(row *vehicle.Row) (float64, bool) {
	dist := 0.0
	if cur := in.g.Edge(row.CurrentEdge); cur != nil {
		dist += (1 - row.EdgeRatio) * cur.Distance
	}
	for i := 0; i < vehicle.MaxLookahead; i++ {
		eid := row.NextEdges[i]
		if eid == graph.InvalidEdge {
			break
		}
		e := in.g.Edge(eid)
		if e == nil {
			break
		}
		if e.RailType.IsCurve() {
			return dist, true
		}
		dist += e.Distance
	}
	return dist, false
}

func edgeIsCurve(g *graph.Graph, id graph.EdgeID) bool {
	e := g.Edge(id)
	return e != nil && e.RailType.IsCurve()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
