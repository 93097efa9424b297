package vehicle

import (
	"testing"

	"railsim/checkpoint"
	"railsim/graph"
)

func TestStoreRowIsAddressable(t *testing.T) {
	s := New(3)
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	row := s.Row(1)
	row.CurrentEdge = 7
	if s.Row(1).CurrentEdge != 7 {
		t.Errorf("mutation through Row() did not persist")
	}
}

func TestForEachVisitsAscending(t *testing.T) {
	s := New(5)
	var seen []int
	s.ForEach(func(id int, row *Row) {
		seen = append(seen, id)
	})
	for i, id := range seen {
		if id != i {
			t.Fatalf("ForEach order = %v, want ascending ids", seen)
		}
	}
}

func TestResetZeroesRow(t *testing.T) {
	s := New(2)
	row := s.Row(0)
	row.Velocity = 5
	row.CurrentEdge = 3
	s.Reset(0)
	if s.Row(0).Velocity != 0 || s.Row(0).CurrentEdge != graph.InvalidEdge {
		t.Errorf("Reset did not clear row state: %+v", s.Row(0))
	}
}

func TestHasPath(t *testing.T) {
	s := New(1)
	if s.HasPath(0) {
		t.Errorf("fresh row should report no path")
	}
	s.Row(0).Path.Len = 2
	if !s.HasPath(0) {
		t.Errorf("row with Path.Len > 0 should report a path")
	}
}

func TestInstallCheckpointsResetsCursor(t *testing.T) {
	s := New(1)
	row := s.Row(0)
	row.CpHead = 9
	row.Current = checkpoint.Checkpoint{Edge: 1}

	cps := []checkpoint.Checkpoint{{Edge: 2}, {Edge: 3}}
	s.InstallCheckpoints(0, cps)

	if row.CpCount != 2 {
		t.Fatalf("CpCount = %d, want 2", row.CpCount)
	}
	if row.CpHead != 0 {
		t.Errorf("CpHead = %d, want reset to 0", row.CpHead)
	}
	if !row.Current.IsZero() {
		t.Errorf("Current should be cleared by InstallCheckpoints")
	}
	if row.Checkpoints[0].Edge != 2 || row.Checkpoints[1].Edge != 3 {
		t.Errorf("checkpoints not copied into fixed array: %+v", row.Checkpoints[:2])
	}
}
