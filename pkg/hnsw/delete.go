package hnsw

import "github.com/leynos/chutoro-go/pkg/types"

// Delete removes u from the graph: every reciprocal edge pointing at u is
// scrubbed, u's own record is cleared, and the entry point is reassigned if
// u was it. Deleting a node can strand its former neighbours at layer 0;
// those are healed the same way a commit-time eviction would be.
func (g *Graph) Delete(u types.ItemID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.nodes[u]
	if rec == nil {
		return nil
	}

	touched := make([]types.ItemID, 0, 8)
	for l, neighbours := range rec.neighbours {
		for _, n := range neighbours {
			if other := g.nodes[n]; other != nil && int(l) < len(other.neighbours) {
				removeFromList(&other.neighbours[l], u)
			}
			touched = append(touched, n)
		}
	}
	g.nodes[u] = nil

	if g.entry != nil && g.entry.node == u {
		g.reassignEntry()
	}

	return g.healConnectivity(dedupeIDs(touched))
}

// reassignEntry picks the node with the highest level count among the
// survivors, breaking ties by lowest ItemID, so the choice is deterministic.
func (g *Graph) reassignEntry() {
	var best types.ItemID
	bestLevel := -1
	found := false
	for i, rec := range g.nodes {
		if rec == nil {
			continue
		}
		level := len(rec.neighbours) - 1
		if !found || level > bestLevel {
			best, bestLevel, found = types.ItemID(i), level, true
		}
	}
	if !found {
		g.entry = nil
		return
	}
	g.entry = &entryPoint{node: best, level: uint8(bestLevel)}
}
