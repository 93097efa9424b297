package transfer

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"railsim/checkpoint"
	"railsim/config"
	"railsim/graph"
	"railsim/vehicle"
)

func corridorGraph(t *testing.T) *graph.Graph {
	t.Helper()
	edges := []*graph.Edge{
		{ID: 1, FromNode: "A", ToNode: "B", Distance: 10, NextEdgeIDs: []graph.EdgeID{2}},
		{ID: 2, FromNode: "B", ToNode: "C", Distance: 10, NextEdgeIDs: []graph.EdgeID{3}},
		{ID: 3, FromNode: "C", ToNode: "D", Distance: 10},
	}
	g, err := graph.Build(edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func newTestManager(t *testing.T) (*Manager, *vehicle.Store) {
	t.Helper()
	g := corridorGraph(t)
	store := vehicle.New(1)
	builder := checkpoint.NewBuilder(g, checkpoint.DefaultParams(), config.NopLogger)
	return NewManager(g, store, builder, 0, config.NopLogger), store
}

func TestAssignCommandInstallsPathAndWakesVehicle(t *testing.T) {
	Convey("Given a stopped vehicle on edge 1", t, func() {
		m, store := newTestManager(t)
		row := store.Row(0)
		row.CurrentEdge = 1
		row.MovingStatus = vehicle.Stopped

		Convey("a connected multi-edge path is installed and wakes it", func() {
			ok := m.AssignCommand(0, Command{Path: []graph.EdgeID{2, 3}})
			So(ok, ShouldBeTrue)

			So(row.MovingStatus, ShouldEqual, vehicle.Moving)
			So(row.Path.Len, ShouldEqual, 2)
			So(row.Path.Edges[0], ShouldEqual, graph.EdgeID(2))
			So(row.Path.Edges[1], ShouldEqual, graph.EdgeID(3))
			So(row.DestinationEdge, ShouldEqual, graph.EdgeID(3))
			So(row.PathRemaining, ShouldEqual, 2)
			So(row.NextEdges[0], ShouldEqual, graph.EdgeID(2))
			So(row.NextEdgeState, ShouldEqual, vehicle.Ready)
		})

		Convey("a disconnected path is rejected and leaves state untouched", func() {
			ok := m.AssignCommand(0, Command{Path: []graph.EdgeID{3}}) // 1 does not lead to 3
			So(ok, ShouldBeFalse)
			So(row.Path.Len, ShouldEqual, 0)
			So(row.MovingStatus, ShouldEqual, vehicle.Stopped)
		})

		Convey("an empty command is dropped", func() {
			ok := m.AssignCommand(0, Command{})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestOnEdgeTransitionShiftsPathBuffer(t *testing.T) {
	m, store := newTestManager(t)
	row := store.Row(0)
	row.CurrentEdge = 1
	if !m.AssignCommand(0, Command{Path: []graph.EdgeID{2, 3}}) {
		t.Fatalf("setup AssignCommand failed")
	}

	m.OnEdgeTransition(0, 1, 2)

	if row.Path.Len != 1 {
		t.Fatalf("Path.Len after one transition = %d, want 1", row.Path.Len)
	}
	if row.Path.Edges[0] != 3 {
		t.Errorf("Path.Edges[0] = %v, want 3", row.Path.Edges[0])
	}
	if row.PathRemaining != 1 {
		t.Errorf("PathRemaining = %d, want 1", row.PathRemaining)
	}
}

func TestClearVehiclePath(t *testing.T) {
	m, store := newTestManager(t)
	row := store.Row(0)
	row.CurrentEdge = 1
	m.AssignCommand(0, Command{Path: []graph.EdgeID{2, 3}})

	m.ClearVehiclePath(0)

	if row.Path.Len != 0 {
		t.Errorf("expected Path.Len 0 after clear, got %d", row.Path.Len)
	}
	if row.NextEdges[0] != graph.InvalidEdge {
		t.Errorf("expected lookahead cleared")
	}
	if row.NextEdgeState != vehicle.Empty {
		t.Errorf("expected NextEdgeState Empty after clear")
	}
	if m.HasReservedPath(0) {
		t.Errorf("HasReservedPath should be false after ClearVehiclePath")
	}
}

func TestAssignCommandTruncatesToMaxPathLength(t *testing.T) {
	g := corridorGraph(t)
	store := vehicle.New(1)
	builder := checkpoint.NewBuilder(g, checkpoint.DefaultParams(), config.NopLogger)
	m := NewManager(g, store, builder, 1, config.NopLogger)

	row := store.Row(0)
	row.CurrentEdge = 1
	ok := m.AssignCommand(0, Command{Path: []graph.EdgeID{2, 3}})
	if !ok {
		t.Fatalf("AssignCommand failed")
	}
	if row.Path.Len != 1 {
		t.Errorf("expected truncation to maxPathLength=1, got Path.Len=%d", row.Path.Len)
	}
}

func TestNextCurveDistance(t *testing.T) {
	edges := []*graph.Edge{
		{ID: 1, FromNode: "A", ToNode: "B", Distance: 10, NextEdgeIDs: []graph.EdgeID{2}},
		{ID: 2, FromNode: "B", ToNode: "C", Distance: 5, RailType: graph.CurveLeft},
	}
	g, err := graph.Build(edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	store := vehicle.New(1)
	builder := checkpoint.NewBuilder(g, checkpoint.DefaultParams(), config.NopLogger)
	m := NewManager(g, store, builder, 0, config.NopLogger)

	row := store.Row(0)
	row.CurrentEdge = 1
	m.AssignCommand(0, Command{Path: []graph.EdgeID{2}})

	id, found := m.NextCurveDistance(0)
	if !found || id != 2 {
		t.Errorf("NextCurveDistance = (%v,%v), want (2,true)", id, found)
	}
}
