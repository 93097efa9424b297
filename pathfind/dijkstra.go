// Package pathfind resolves shortest paths over the rail network: Dijkstra
// over edges-as-nodes, an LRU result cache, and advisory stats.
package pathfind

import (
	"container/heap"
	"time"

	"railsim/graph"
)

// Engine resolves shortest paths over a *graph.Graph and caches results.
// Not safe for concurrent use from multiple goroutines — the core is
// single-threaded cooperative, and Engine's scratch buffers are reused
// across calls within one fab.
type Engine struct {
	g *graph.Graph

	// Scratch, sized to g.NumEdges() on first use and reused thereafter.
	dist  []float64
	prev  []graph.EdgeID
	epoch []int
	cur   int

	h     minHeap
	cache *lruCache
	stats Stats
}

// New returns a pathfinding engine over g with an LRU cache of the given
// capacity.
func New(g *graph.Graph, cacheCapacity int) *Engine {
	return &Engine{
		g:     g,
		cache: newLRUCache(cacheCapacity),
	}
}

func (e *Engine) ensureScratch() {
	n := e.g.NumEdges()
	if len(e.dist) >= n {
		return
	}
	e.dist = make([]float64, n)
	e.prev = make([]graph.EdgeID, n)
	e.epoch = make([]int, n)
}

// ShortestPath resolves the lowest-cost edge sequence from start to end,
// inclusive of both endpoints, where cost of entering a neighbour edge is
// its Distance. Returns (nil, false) if end is unreachable or either
// endpoint is out of range. start == end returns ([start], true).
func (e *Engine) ShortestPath(start, end graph.EdgeID) ([]graph.EdgeID, bool) {
	started := time.Now()
	if e.g.Edge(start) == nil || e.g.Edge(end) == nil {
		return nil, false
	}

	key := cacheKey{start, end}
	if cached, ok := e.cache.get(key); ok {
		e.stats.recordCacheHit()
		e.stats.recordDuration(time.Since(started), true)
		out := make([]graph.EdgeID, len(cached))
		copy(out, cached)
		return out, true
	}

	path, ok := e.computeShortestPath(start, end)
	e.stats.recordDuration(time.Since(started), ok)
	if ok {
		cloned := make([]graph.EdgeID, len(path))
		copy(cloned, path)
		e.cache.put(key, cloned)
	}
	return path, ok
}

func (e *Engine) computeShortestPath(start, end graph.EdgeID) ([]graph.EdgeID, bool) {
	if start == end {
		return []graph.EdgeID{start}, true
	}

	e.ensureScratch()
	e.cur++
	curEpoch := e.cur

	e.h = e.h[:0]
	e.setDist(start, curEpoch, 0)
	heap.Push(&e.h, heapItem{id: start, cost: 0})

	for e.h.Len() > 0 {
		top := heap.Pop(&e.h).(heapItem)
		if top.id == end {
			break
		}
		if top.cost > e.distOf(top.id, curEpoch) {
			continue // stale heap entry
		}

		for _, nxt := range e.g.NextOf(top.id) {
			nxtEdge := e.g.Edge(nxt)
			if nxtEdge == nil {
				continue
			}
			cand := top.cost + nxtEdge.Distance
			if cand < e.distOf(nxt, curEpoch) {
				e.setDist(nxt, curEpoch, cand)
				e.prev[nxt] = top.id
				heap.Push(&e.h, heapItem{id: nxt, cost: cand})
			}
		}
	}

	if e.distOf(end, curEpoch) >= unreachedSentinel {
		return nil, false
	}

	// Reconstruct forward path via prev[].
	revPath := []graph.EdgeID{end}
	cursor := end
	for cursor != start {
		cursor = e.prev[cursor]
		revPath = append(revPath, cursor)
	}
	path := make([]graph.EdgeID, len(revPath))
	for i, id := range revPath {
		path[len(revPath)-1-i] = id
	}
	return path, true
}

const unreachedSentinel = 1e18

func (e *Engine) distOf(id graph.EdgeID, curEpoch int) float64 {
	if e.epoch[id] != curEpoch {
		return unreachedSentinel
	}
	return e.dist[id]
}

func (e *Engine) setDist(id graph.EdgeID, curEpoch int, val float64) {
	e.epoch[id] = curEpoch
	e.dist[id] = val
}

// InvalidateCache drops every cached result. Callers are responsible for
// invalidation on graph reload; the core never calls this itself since
// edges are immutable after init.
func (e *Engine) InvalidateCache() {
	e.cache.clear()
}

// Stats returns a snapshot of the running advisory stats.
func (e *Engine) Stats() *Stats {
	return e.stats.snapshot()
}

// --- binary min-heap over (edge id, cost) ---

type heapItem struct {
	id   graph.EdgeID
	cost float64
}

type minHeap []heapItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
