package graph

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func threeEdgeLoop() []*Edge {
	return []*Edge{
		{ID: 1, FromNode: "A", ToNode: "M", Distance: 10, NextEdgeIDs: []EdgeID{3}},
		{ID: 2, FromNode: "B", ToNode: "M", Distance: 10, NextEdgeIDs: []EdgeID{3}},
		{ID: 3, FromNode: "M", ToNode: "A", Distance: 10, NextEdgeIDs: []EdgeID{1}},
	}
}

func TestBuild(t *testing.T) {
	Convey("Given edges joining at a merge node", t, func() {
		edges := threeEdgeLoop()
		stations := []Station{{Name: "dock", NearestEdgeID: 1}}

		Convey("Build succeeds and detects the merge node", func() {
			g, err := Build(edges, stations)
			So(err, ShouldBeNil)
			So(g.IsMergeNode("M"), ShouldBeTrue)
			So(g.IsMergeNode("A"), ShouldBeFalse)
			So(g.MergeNodes(), ShouldResemble, []string{"M"})
		})

		Convey("Edge and NextOf resolve by id", func() {
			g, err := Build(edges, stations)
			So(err, ShouldBeNil)
			So(g.Edge(1).FromNode, ShouldEqual, "A")
			So(g.NextOf(1), ShouldResemble, []EdgeID{3})
			So(g.Edge(0), ShouldBeNil)
			So(g.Edge(99), ShouldBeNil)
		})

		Convey("ReverseOf finds edges feeding into a given edge", func() {
			g, err := Build(edges, stations)
			So(err, ShouldBeNil)
			rev := g.ReverseOf(3)
			So(rev, ShouldContain, EdgeID(1))
			So(rev, ShouldContain, EdgeID(2))
		})

		Convey("a dangling NextEdgeIDs reference is a Build error", func() {
			bad := []*Edge{
				{ID: 1, FromNode: "A", ToNode: "B", Distance: 5, NextEdgeIDs: []EdgeID{99}},
			}
			_, err := Build(bad, nil)
			So(err, ShouldNotBeNil)
			var dangling *ErrDanglingEdge
			So(err, ShouldHaveSameTypeAs, dangling)
		})

		Convey("a station resolving to an unknown edge is silently dropped", func() {
			g, err := Build(edges, []Station{{Name: "ghost", NearestEdgeID: 42}})
			So(err, ShouldBeNil)
			So(g.StationsInRegion(1), ShouldBeEmpty)
		})
	})
}

func TestToNodeIsDiverge(t *testing.T) {
	edges := []*Edge{
		{ID: 1, FromNode: "A", ToNode: "B", Distance: 5, NextEdgeIDs: []EdgeID{2, 3}},
		{ID: 2, FromNode: "B", ToNode: "C", Distance: 5},
		{ID: 3, FromNode: "B", ToNode: "D", Distance: 5},
	}
	g, err := Build(edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !g.Edge(1).ToNodeIsDiverge {
		t.Errorf("edge 1 should be a diverge (2 next edges)")
	}
	if g.Edge(2).ToNodeIsDiverge {
		t.Errorf("edge 2 should not be a diverge")
	}
}

func TestRegionsSplitDisconnectedComponents(t *testing.T) {
	edges := []*Edge{
		{ID: 1, FromNode: "A", ToNode: "B", Distance: 5},
		{ID: 2, FromNode: "X", ToNode: "Y", Distance: 5},
	}
	g, err := Build(edges, []Station{
		{Name: "s1", NearestEdgeID: 1},
		{Name: "s2", NearestEdgeID: 2},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.RegionOf(1) == g.RegionOf(2) {
		t.Errorf("disconnected edges should land in different regions")
	}
	if len(g.StationsInRegion(1)) != 1 || g.StationsInRegion(1)[0].Name != "s1" {
		t.Errorf("region 1 should contain only s1, got %+v", g.StationsInRegion(1))
	}
}

func TestEdgeInterpolate(t *testing.T) {
	e := &Edge{
		RenderingPoints: []RenderPoint{{X: 0, Y: 0}, {X: 10, Y: 0}},
	}
	cases := []struct {
		ratio float64
		wantX float64
		wantY float64
	}{
		{0, 0, 0},
		{0.5, 5, 0},
		{1, 10, 0},
		{-1, 0, 0}, // clamped
		{2, 10, 0}, // clamped
	}
	for _, c := range cases {
		x, y, _, _ := e.Interpolate(c.ratio)
		if x != c.wantX || y != c.wantY {
			t.Errorf("Interpolate(%v) = (%v,%v), want (%v,%v)", c.ratio, x, y, c.wantX, c.wantY)
		}
	}
}

func TestEffectiveWaitingOffset(t *testing.T) {
	e := &Edge{}
	if e.EffectiveWaitingOffset() != DefaultWaitingOffset {
		t.Errorf("unset WaitingOffset should default to %v", DefaultWaitingOffset)
	}
	e.WaitingOffset = 3.5
	if e.EffectiveWaitingOffset() != 3.5 {
		t.Errorf("explicit WaitingOffset should override the default")
	}
}
