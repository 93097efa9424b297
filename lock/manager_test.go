package lock

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"railsim/checkpoint"
	"railsim/graph"
	"railsim/vehicle"
)

func mergeGraph(t *testing.T) *graph.Graph {
	t.Helper()
	edges := []*graph.Edge{
		{ID: 1, FromNode: "A", ToNode: "M", Distance: 10, NextEdgeIDs: []graph.EdgeID{3}},
		{ID: 2, FromNode: "B", ToNode: "M", Distance: 10, NextEdgeIDs: []graph.EdgeID{3}},
		{ID: 3, FromNode: "M", ToNode: "C", Distance: 10},
	}
	g, err := graph.Build(edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// installTwoCheckpoints gives a row a LockRequest checkpoint followed by a
// LockWait checkpoint on the same approach edge, targeting target.
func installTwoCheckpoints(store *vehicle.Store, id int, edge, target graph.EdgeID) {
	store.InstallCheckpoints(id, []checkpoint.Checkpoint{
		{Edge: edge, Ratio: 0.1, Flags: checkpoint.LockRequest, TargetEdge: target},
		{Edge: edge, Ratio: 0.8, Flags: checkpoint.LockWait, TargetEdge: target},
	})
}

func TestMergeFIFOAcquireWaitRelease(t *testing.T) {
	Convey("Given two vehicles approaching a shared merge node", t, func() {
		g := mergeGraph(t)
		store := vehicle.New(2)
		m := NewManager(g, nil)

		row0 := store.Row(0)
		row0.CurrentEdge = 1
		row0.EdgeRatio = 0.95
		installTwoCheckpoints(store, 0, 1, 3)

		row1 := store.Row(1)
		row1.CurrentEdge = 2
		row1.EdgeRatio = 0.95
		installTwoCheckpoints(store, 1, 2, 3)

		Convey("the first vehicle to request acquires and passes through free", func() {
			m.UpdateAll(store)

			So(m.Holder("M"), ShouldEqual, 0)
			So(row0.TrafficState, ShouldEqual, vehicle.Acquired)
			So(row0.MovingStatus, ShouldEqual, vehicle.Moving)

			Convey("the second vehicle is enqueued and forced to a stop", func() {
				So(m.Queue("M"), ShouldResemble, []int{0, 1})
				So(row1.TrafficState, ShouldEqual, vehicle.Waiting)
				So(row1.MovingStatus, ShouldEqual, vehicle.Stopped)
				So(row1.Velocity, ShouldEqual, 0)
				So(row1.StopReason&vehicle.Locked, ShouldNotEqual, 0)

				Convey("once the holder crosses onto the target edge, the waiter is granted on the next tick", func() {
					row0.CurrentEdge = 3 // holder physically transitions

					m.UpdateAll(store)

					So(m.Holder("M"), ShouldEqual, 1)
					So(row1.TrafficState, ShouldEqual, vehicle.Acquired)
					So(row1.MovingStatus, ShouldEqual, vehicle.Moving)
					So(row1.StopReason&vehicle.Locked, ShouldEqual, 0)
				})
			})
		})
	})
}

func TestMissedCheckpointSkipsLockWait(t *testing.T) {
	g := mergeGraph(t)
	store := vehicle.New(1)
	m := NewManager(g, nil)

	row := store.Row(0)
	row.CurrentEdge = 3 // already past edge 1 entirely
	row.EdgeRatio = 0.5
	row.Path = vehicle.PathBuffer{} // empty: edge 1 is not in the remaining path buffer
	store.InstallCheckpoints(0, []checkpoint.Checkpoint{
		{Edge: 1, Ratio: 0.1, Flags: checkpoint.LockRequest, TargetEdge: 3},
		{Edge: 1, Ratio: 0.8, Flags: checkpoint.LockWait, TargetEdge: 3},
	})

	m.UpdateAll(store)

	// Both checkpoints were missed (edge 1 is behind current edge 3 and gone
	// from the path buffer): LOCK_REQUEST still runs (so the node gets
	// queued state cleaned up consistently) but LOCK_WAIT is never honored.
	if row.CpHead != 2 {
		t.Errorf("expected both missed checkpoints consumed, CpHead = %d", row.CpHead)
	}
	if row.MovingStatus == vehicle.Stopped {
		t.Errorf("a missed LOCK_WAIT must never stop the vehicle")
	}
}

func TestReleaseOnlyHolderCanRelease(t *testing.T) {
	g := mergeGraph(t)
	m := NewManager(g, nil)

	n := m.node("M")
	n.enqueue(5)
	n.enqueue(6)

	if m.Release(6, 1) {
		t.Errorf("non-holder Release should report false")
	}
	if m.Holder("M") != 5 {
		t.Fatalf("holder should still be 5")
	}
	if !m.Release(5, 1) {
		t.Errorf("holder Release should report true")
	}
	if m.Holder("M") != 6 {
		t.Errorf("releasing the holder should promote the next waiter, got holder %d", m.Holder("M"))
	}
}

func TestReleaseOnNonMergeEdgeIsNoop(t *testing.T) {
	g := mergeGraph(t)
	m := NewManager(g, nil)
	// edge 3's to_node "C" has in-degree 1: not a merge node.
	if m.Release(0, 3) {
		t.Errorf("Release on a non-merge edge should report false")
	}
}
