package hnsw

import (
	"container/heap"
	"sort"

	"github.com/leynos/chutoro-go/pkg/types"
)

// greedyDescent walks down from start at fromLevel to (and including)
// toLevel+1, at each layer moving to the single closest neighbour until no
// neighbour improves on the current node. Caller must hold at least a read
// lock. Grounded on the teacher's searchLayerClosest single-nearest walk.
func (g *Graph) greedyDescent(query types.ItemID, start types.ItemID, fromLevel, toLevel uint8) (types.ItemID, error) {
	current := start
	currentDist, err := g.dist(query, current)
	if err != nil {
		return 0, err
	}
	for l := fromLevel; l > toLevel; l-- {
		for {
			improved := false
			for _, n := range g.neighboursLocked(current, l) {
				d, err := g.dist(query, n)
				if err != nil {
					return 0, err
				}
				if d < currentDist {
					current, currentDist = n, d
					improved = true
				}
			}
			if !improved {
				break
			}
		}
	}
	return current, nil
}

// beamSearch performs the ef-bounded best-first expansion at a single
// layer, starting from entryPoints, and returns the ef closest nodes found
// sorted ascending by distance. Caller must hold at least a read lock.
// Grounded on the teacher's searchLayer candidate/dynamicList dual-heap
// pattern (pkg/index/hnsw.go), adapted from stored vectors to an opaque
// distance oracle.
func (g *Graph) beamSearch(query types.ItemID, entryPoints []types.ItemID, ef int, layer uint8) ([]heapItem, error) {
	visited := make(map[types.ItemID]bool, ef*4)
	candidates := &minHeap{}
	found := &maxHeap{}

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		d, err := g.dist(query, ep)
		if err != nil {
			return nil, err
		}
		item := heapItem{id: ep, dist: d, seq: g.nodes[ep].sequence}
		heap.Push(candidates, item)
		heap.Push(found, item)
		if found.Len() > ef {
			heap.Pop(found)
		}
	}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(heapItem)
		if found.Len() >= ef {
			worst := (*found)[0]
			if less(worst, c) {
				break
			}
		}
		for _, n := range g.neighboursLocked(c.id, layer) {
			if visited[n] {
				continue
			}
			visited[n] = true
			d, err := g.dist(query, n)
			if err != nil {
				return nil, err
			}
			item := heapItem{id: n, dist: d, seq: g.nodes[n].sequence}
			if found.Len() < ef {
				heap.Push(candidates, item)
				heap.Push(found, item)
				continue
			}
			worst := (*found)[0]
			if less(item, worst) {
				heap.Push(candidates, item)
				heap.Push(found, item)
				heap.Pop(found)
			}
		}
	}

	out := make([]heapItem, len(*found))
	copy(out, *found)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// Search returns the k nearest items to query among the graph's committed
// nodes, excluding query itself. ef bounds the layer-0 beam width; a wider
// ef trades latency for recall (SEARCH-1).
func (g *Graph) Search(query types.ItemID, k, ef int) ([]types.ItemID, []float32, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.entry == nil {
		return nil, nil, nil
	}
	entry := g.entry
	if ef < k+1 {
		ef = k + 1
	}

	current, err := g.greedyDescent(query, entry.node, entry.level, 0)
	if err != nil {
		return nil, nil, err
	}
	found, err := g.beamSearch(query, []types.ItemID{current}, ef, 0)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]types.ItemID, 0, k)
	dists := make([]float32, 0, k)
	for _, item := range found {
		if item.id == query {
			continue
		}
		ids = append(ids, item.id)
		dists = append(dists, item.dist)
		if len(ids) == k {
			break
		}
	}
	return ids, dists, nil
}
