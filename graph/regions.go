package graph

// labelRegions assigns a region id to every edge: the connected-component id
// of the undirected projection of forward + reverse adjacency, found by BFS
// with a slice-backed frontier queue.
func (g *Graph) labelRegions(edges []*Edge) {
	visited := make(map[EdgeID]bool, len(edges))
	region := 0

	for _, start := range edges {
		if visited[start.ID] {
			continue
		}

		queue := []EdgeID{start.ID}
		visited[start.ID] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			g.edges[cur].regionID = region

			for _, nxt := range g.NextOf(cur) {
				if !visited[nxt] {
					visited[nxt] = true
					queue = append(queue, nxt)
				}
			}
			for _, prev := range g.reverseIndex[cur] {
				if !visited[prev] {
					visited[prev] = true
					queue = append(queue, prev)
				}
			}
		}

		region++
	}
}
