package checkpoint

import (
	"sort"

	"railsim/config"
	"railsim/graph"
)

// Builder materializes checkpoint lists from paths.
type Builder struct {
	g      *graph.Graph
	params Params
	logger config.Logger
}

// NewBuilder returns a Builder over g with the given geometry params.
func NewBuilder(g *graph.Graph, params Params, logger config.Logger) *Builder {
	if logger == nil {
		logger = config.NopLogger
	}
	return &Builder{g: g, params: params, logger: logger}
}

// Build converts path (length >= 1, first edge already occupied) into an
// ordered checkpoint list. Truncates to Params.MaxCheckpointsPerVehicle with
// a warning if the emitted count exceeds capacity.
func (b *Builder) Build(path []graph.EdgeID) []Checkpoint {
	if len(path) < 2 {
		return nil
	}

	var out []Checkpoint
	emit := func(edge graph.EdgeID, ratio float64, flags Flag, target graph.EdgeID) {
		out = append(out, Checkpoint{Edge: edge, Ratio: ratio, Flags: flags, TargetEdge: target})
	}

	for i := 1; i < len(path); i++ {
		target := path[i]
		incoming := path[i-1]
		targetEdge := b.g.Edge(target)
		incomingEdge := b.g.Edge(incoming)
		if targetEdge == nil || incomingEdge == nil {
			continue
		}
		isMerge := b.g.IsMergeNode(targetEdge.FromNode)

		switch {
		case incomingEdge.RailType.IsCurve() && isMerge:
			mpEdge, mpRatio := b.walkBackward(path, i-1, b.params.CurveRequestDistance, true)
			emit(mpEdge, mpRatio, MovePrepare, target)
			lrEdge, lrRatio := b.walkBackward(path, i-1, b.params.CurveRequestDistance, true)
			emit(lrEdge, lrRatio, LockRequest, target)

		case !incomingEdge.RailType.IsCurve() && isMerge && targetEdge.RailType.IsCurve():
			mpEdge, mpRatio := b.walkBackward(path, i-1, b.params.CurveRequestDistance, true)
			emit(mpEdge, mpRatio, MovePrepare, target)
			lrEdge, lrRatio := b.walkBackward(path, i-1, b.params.StraightRequestDistance, true)
			emit(lrEdge, lrRatio, LockRequest, target)

		default:
			required := b.params.StraightRequestDistance
			if targetEdge.RailType.IsCurve() {
				required = b.params.CurveRequestDistance
			}
			edge, ratio := b.walkBackward(path, i-1, required, true)
			flags := MovePrepare
			if isMerge {
				flags |= LockRequest
			}
			emit(edge, ratio, flags, target)
		}

		if isMerge {
			var wEdge graph.EdgeID
			var wRatio float64
			if incomingEdge.RailType.IsCurve() {
				wEdge, wRatio = incoming, 0.0
			} else {
				wEdge, wRatio = b.walkBackward(path, i-1, incomingEdge.EffectiveWaitingOffset(), false)
			}
			emit(wEdge, wRatio, LockWait, target)
		}
	}

	sortByPathPosition(out, path)

	if len(out) > b.params.MaxCheckpointsPerVehicle {
		b.logger.Warnf("checkpoint: truncating %d checkpoints to capacity %d", len(out), b.params.MaxCheckpointsPerVehicle)
		out = out[:b.params.MaxCheckpointsPerVehicle]
	}
	return out
}

// walkBackward walks path backward from index fromIndex (inclusive),
// accumulating edge distance, looking for the point required meters before
// the starting node. When stopAtCurve is true, hitting a curve edge before
// the distance threshold immediately places the checkpoint at that curve's
// ratio 0.5 — curve speed is hard to predict, so the point is fixed
// geometrically. When false (the wait-point straight-incoming case), curves
// are treated like any other edge's distance.
func (b *Builder) walkBackward(path []graph.EdgeID, fromIndex int, required float64, stopAtCurve bool) (graph.EdgeID, float64) {
	accumulated := 0.0
	for j := fromIndex; j >= 0; j-- {
		e := b.g.Edge(path[j])
		if e == nil {
			continue
		}
		if stopAtCurve && e.RailType.IsCurve() {
			return e.ID, 0.5
		}
		accumulated += e.Distance
		if accumulated >= required {
			ratio := (accumulated - required) / e.Distance
			if ratio < 0 {
				ratio = 0
			}
			return e.ID, ratio
		}
	}
	// Ran out of path before accruing enough distance: first edge, ratio 0.
	return path[0], 0.0
}

// sortByPathPosition sorts checkpoints by (first occurrence of Edge in
// path, Ratio ascending) — the ordering the Lock Manager's cursor assumes.
func sortByPathPosition(cps []Checkpoint, path []graph.EdgeID) {
	pos := make(map[graph.EdgeID]int, len(path))
	for i, e := range path {
		if _, seen := pos[e]; !seen {
			pos[e] = i
		}
	}
	sort.SliceStable(cps, func(i, j int) bool {
		pi, pj := pos[cps[i].Edge], pos[cps[j].Edge]
		if pi != pj {
			return pi < pj
		}
		return cps[i].Ratio < cps[j].Ratio
	})
}
