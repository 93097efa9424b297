package graph

import (
	"fmt"
	"sort"
)

// Station is a named point of interest resolved to the nearest edge.
type Station struct {
	Name          string
	NearestEdgeID EdgeID
	RegionID      int
}

// Graph is the immutable rail network: edges, the reverse index, region
// labels, the merge-node set, and stations. Built once by Build; every
// lookup below is O(1).
type Graph struct {
	edges []*Edge // index 0 unused (sentinel); edges[id] for id in [1, len)

	// reverseIndex[e.ID] holds the edges whose ToNode == e.FromNode.
	reverseIndex map[EdgeID][]EdgeID

	mergeNodes map[string]bool // node name -> true iff in-degree >= 2

	stations     []Station
	stationsByID map[int][]int // regionID -> indices into stations
}

// ErrDanglingEdge is returned by Build when an edge's NextEdgeIDs references
// an edge id that doesn't exist in the table.
type ErrDanglingEdge struct {
	From EdgeID
	To   EdgeID
}

func (e *ErrDanglingEdge) Error() string {
	return fmt.Sprintf("graph: edge %d references unknown next edge %d", e.From, e.To)
}

// Build validates and indexes the given edges and stations. Edge ids are
// taken from each Edge.ID; callers must have assigned 1-based, densely
// packed ids (0 reserved as the invalid sentinel). A dangling NextEdgeIDs
// reference is a programmer error and is returned immediately — the only
// failure mode that is fatal at init.
func Build(edges []*Edge, stations []Station) (*Graph, error) {
	maxID := EdgeID(0)
	for _, e := range edges {
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	g := &Graph{
		edges:        make([]*Edge, maxID+1),
		reverseIndex: make(map[EdgeID][]EdgeID, len(edges)),
		mergeNodes:   make(map[string]bool),
	}
	for _, e := range edges {
		g.edges[e.ID] = e
	}

	// Validate no dangling refs and compute ToNodeIsDiverge.
	for _, e := range edges {
		e.ToNodeIsDiverge = len(e.NextEdgeIDs) > 1
		for _, nxt := range e.NextEdgeIDs {
			if int(nxt) >= len(g.edges) || g.edges[nxt] == nil {
				return nil, &ErrDanglingEdge{From: e.ID, To: nxt}
			}
		}
	}

	// Reverse index + in-degree for merge-node detection.
	inDegree := make(map[string]int)
	for _, e := range edges {
		inDegree[e.ToNode]++
		for _, nxt := range e.NextEdgeIDs {
			g.reverseIndex[nxt] = append(g.reverseIndex[nxt], e.ID)
		}
	}
	for node, deg := range inDegree {
		if deg >= 2 {
			g.mergeNodes[node] = true
		}
	}

	g.labelRegions(edges)

	g.stations = make([]Station, 0, len(stations))
	g.stationsByID = make(map[int][]int)
	for _, st := range stations {
		if int(st.NearestEdgeID) >= len(g.edges) || g.edges[st.NearestEdgeID] == nil {
			// Station points at an unknown edge: drop it. Build takes no
			// logger, so the drop is silent.
			continue
		}
		st.RegionID = g.edges[st.NearestEdgeID].regionID
		idx := len(g.stations)
		g.stations = append(g.stations, st)
		g.stationsByID[st.RegionID] = append(g.stationsByID[st.RegionID], idx)
	}

	return g, nil
}

// Edge returns the edge with the given id, or nil if out of range.
func (g *Graph) Edge(id EdgeID) *Edge {
	if id <= 0 || int(id) >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// NextOf returns the outgoing edge ids from edge id's ToNode.
func (g *Graph) NextOf(id EdgeID) []EdgeID {
	e := g.Edge(id)
	if e == nil {
		return nil
	}
	return e.NextEdgeIDs
}

// ReverseOf returns the edges whose ToNode equals edge id's FromNode.
func (g *Graph) ReverseOf(id EdgeID) []EdgeID {
	return g.reverseIndex[id]
}

// IsMergeNode reports whether node has in-degree >= 2.
func (g *Graph) IsMergeNode(node string) bool {
	return g.mergeNodes[node]
}

// MergeNodes returns every merge-node name, sorted for deterministic
// introspection output.
func (g *Graph) MergeNodes() []string {
	out := make([]string, 0, len(g.mergeNodes))
	for node := range g.mergeNodes {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// NumEdges returns the highest valid edge id + 1 (the size needed for
// dense per-edge scratch arrays).
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// StationsInRegion returns every station sharing edge id's region.
func (g *Graph) StationsInRegion(edgeID EdgeID) []Station {
	e := g.Edge(edgeID)
	if e == nil {
		return nil
	}
	idxs := g.stationsByID[e.regionID]
	out := make([]Station, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, g.stations[i])
	}
	return out
}

// RegionOf returns the region id of the given edge, or -1 if edgeID is invalid.
func (g *Graph) RegionOf(edgeID EdgeID) int {
	e := g.Edge(edgeID)
	if e == nil {
		return -1
	}
	return e.regionID
}
