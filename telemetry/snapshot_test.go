package telemetry

import (
	"testing"

	"railsim/config"
	"railsim/core"
	"railsim/graph"
	"railsim/transfer"
)

func demoFab(t *testing.T) *core.Fab {
	t.Helper()
	edges := []*graph.Edge{
		{ID: 1, FromNode: "A", ToNode: "M", Distance: 10, NextEdgeIDs: []graph.EdgeID{3},
			RenderingPoints: []graph.RenderPoint{{X: 0, Y: 0}, {X: 10, Y: 0}}},
		{ID: 2, FromNode: "B", ToNode: "M", Distance: 10, NextEdgeIDs: []graph.EdgeID{3},
			RenderingPoints: []graph.RenderPoint{{X: 0, Y: 10}, {X: 10, Y: 0}}},
		{ID: 3, FromNode: "M", ToNode: "C", Distance: 10,
			RenderingPoints: []graph.RenderPoint{{X: 10, Y: 0}, {X: 20, Y: 0}}},
	}
	g, err := graph.Build(edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return core.NewFab(g, 2, config.Defaults(), 1, config.NopLogger)
}

func TestBuildSnapshotReflectsVehiclesAndLocks(t *testing.T) {
	fab := demoFab(t)
	fab.VehicleRow(0).CurrentEdge = 1
	fab.VehicleRow(1).CurrentEdge = 2
	fab.AssignCommand(0, transfer.Command{Path: []graph.EdgeID{3}})
	fab.AssignCommand(1, transfer.Command{Path: []graph.EdgeID{3}})

	for i := 0; i < 100; i++ {
		fab.Tick(0.1)
	}

	snap := BuildSnapshot(fab)
	if len(snap.Vehicles) != 2 {
		t.Fatalf("expected 2 vehicle snapshots, got %d", len(snap.Vehicles))
	}
	if snap.Vehicles[0].ID != 0 || snap.Vehicles[1].ID != 1 {
		t.Errorf("vehicle snapshots not in ascending id order: %+v", snap.Vehicles)
	}

	var sawMergeNode bool
	for _, l := range snap.Locks {
		if l.Node == "M" {
			sawMergeNode = true
		}
	}
	if !sawMergeNode {
		t.Errorf("expected a lock snapshot entry for merge node M, got %+v", snap.Locks)
	}

	if snap.PathFinder.Calls != 0 {
		t.Errorf("no auto-routing occurred, expected zero path-finder calls, got %d", snap.PathFinder.Calls)
	}
}
