package hnsw

import (
	"github.com/leynos/chutoro-go/pkg/harvest"
	"github.com/leynos/chutoro-go/pkg/types"
)

// scrubEntry records a forward edge that must be removed because its
// target evicted the origin to make room for a new reciprocal neighbour.
// Deferred scrubs all apply within the same commit that produced them, per
// this package's "next insertion's commit only begins once this one,
// including its scrub, is done" ordering.
type scrubEntry struct {
	origin types.ItemID
	target types.ItemID
	layer  uint8
}

// selectHeuristic implements the diversification rule: a candidate c is
// added to the chosen set only if c is strictly closer to query than to
// every candidate already chosen. This is the actual HNSW
// select-neighbours-heuristic, not a plain top-M-by-distance sort.
func (g *Graph) selectHeuristic(query types.ItemID, candidates []heapItem, m int) ([]heapItem, error) {
	chosen := make([]heapItem, 0, m)
	for _, c := range candidates {
		if len(chosen) >= m {
			break
		}
		keep := true
		for _, ch := range chosen {
			d, err := g.dist(c.id, ch.id)
			if err != nil {
				return nil, err
			}
			if d <= c.dist {
				keep = false
				break
			}
		}
		if keep {
			chosen = append(chosen, c)
		}
	}
	return chosen, nil
}

// addNeighbour appends newNeighbour to owner's layer-l adjacency, evicting
// the furthest existing neighbour if that pushes the list over cap. Caller
// must hold the exclusive write lock. Returns the evicted ID, if any.
func (g *Graph) addNeighbour(owner types.ItemID, layer uint8, newNeighbour types.ItemID, maxDegree int) (types.ItemID, bool, error) {
	rec := g.nodes[owner]
	if rec == nil || int(layer) >= len(rec.neighbours) {
		return 0, false, nil
	}
	for _, n := range rec.neighbours[layer] {
		if n == newNeighbour {
			return 0, false, nil
		}
	}
	rec.neighbours[layer] = append(rec.neighbours[layer], newNeighbour)
	if len(rec.neighbours[layer]) <= maxDegree {
		return 0, false, nil
	}

	worstIdx := 0
	worstDist, err := g.dist(owner, rec.neighbours[layer][0])
	if err != nil {
		return 0, false, err
	}
	for i := 1; i < len(rec.neighbours[layer]); i++ {
		d, err := g.dist(owner, rec.neighbours[layer][i])
		if err != nil {
			return 0, false, err
		}
		if d > worstDist {
			worstDist, worstIdx = d, i
		}
	}
	evicted := rec.neighbours[layer][worstIdx]
	rec.neighbours[layer] = removeAt(rec.neighbours[layer], worstIdx)
	return evicted, true, nil
}

func removeAt(s []types.ItemID, idx int) []types.ItemID {
	return append(s[:idx], s[idx+1:]...)
}

func removeFromList(s *[]types.ItemID, id types.ItemID) {
	for i, n := range *s {
		if n == id {
			*s = removeAt(*s, i)
			return
		}
	}
}

func idsOf(items []heapItem) []types.ItemID {
	out := make([]types.ItemID, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func dedupeIDs(ids []types.ItemID) []types.ItemID {
	seen := make(map[types.ItemID]bool, len(ids))
	out := make([]types.ItemID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) applyScrubs(scrubs []scrubEntry) {
	for _, s := range scrubs {
		rec := g.nodes[s.origin]
		if rec == nil || int(s.layer) >= len(rec.neighbours) {
			continue
		}
		removeFromList(&rec.neighbours[s.layer], s.target)
	}
}

// healConnectivity forces a reciprocal link for any touched node left with
// no layer-0 neighbours after scrubbing, picking the nearest other
// committed node and allowing at most one further eviction on each side.
func (g *Graph) healConnectivity(touched []types.ItemID) error {
	for _, id := range touched {
		rec := g.nodes[id]
		if rec == nil || len(rec.neighbours) == 0 || len(rec.neighbours[0]) > 0 {
			continue
		}
		best, found, err := g.nearestOther(id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := g.forceLink(id, best); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) nearestOther(id types.ItemID) (types.ItemID, bool, error) {
	var best types.ItemID
	var bestDist float32
	found := false
	for i, rec := range g.nodes {
		o := types.ItemID(i)
		if rec == nil || o == id {
			continue
		}
		d, err := g.dist(id, o)
		if err != nil {
			return 0, false, err
		}
		if !found || d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	return best, found, nil
}

func (g *Graph) forceLink(a, b types.ItemID) error {
	if err := g.forceLinkOneSide(a, b); err != nil {
		return err
	}
	return g.forceLinkOneSide(b, a)
}

func (g *Graph) forceLinkOneSide(owner, other types.ItemID) error {
	evicted, has, err := g.addNeighbour(owner, 0, other, g.params.MMax0)
	if err != nil {
		return err
	}
	if has && evicted != other {
		if rec := g.nodes[evicted]; rec != nil && len(rec.neighbours) > 0 {
			removeFromList(&rec.neighbours[0], owner)
		}
	}
	return nil
}

// searchForInsert runs the read-only phase of insertion — greedy descent to
// u's level, then a beam search and heuristic selection at each layer from
// the entry point down — under a shared read hold, so in-flight Search
// calls are not blocked while it runs. Insert calls it only once the
// turnstile has admitted this insertion's sequence number. Per spec.md's
// insertion concurrency model, this is the phase that must never be folded
// into the write-locked commit.
func (g *Graph) searchForInsert(u types.ItemID, level uint8) ([][]heapItem, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	staged := make([][]heapItem, level+1)
	if g.entry == nil {
		return staged, nil
	}
	entry := g.entry
	cur, err := g.greedyDescent(u, entry.node, entry.level, level)
	if err != nil {
		return nil, err
	}
	top := level
	if entry.level < top {
		top = entry.level
	}
	ep := []types.ItemID{cur}
	for l := int(top); l >= 0; l-- {
		found, err := g.beamSearch(u, ep, g.params.EfConstruction, uint8(l))
		if err != nil {
			return nil, err
		}
		capL := g.params.M
		if l == 0 {
			capL = g.params.MMax0
		}
		chosen, err := g.selectHeuristic(u, found, capL)
		if err != nil {
			return nil, err
		}
		staged[l] = chosen
		if len(chosen) > 0 {
			ep = idsOf(chosen)
		} else {
			ep = idsOf(found)
		}
	}
	return staged, nil
}

// revalidateStaged drops any candidate a concurrent Delete removed (or
// whose layer-l presence it removed) in the gap between searchForInsert
// releasing its read hold and Insert acquiring the write hold for commit.
// Caller must hold the exclusive write lock.
func (g *Graph) revalidateStaged(staged [][]heapItem, level uint8) [][]heapItem {
	for l := 0; l <= int(level); l++ {
		kept := staged[l][:0:0]
		for _, item := range staged[l] {
			rec := g.nodes[item.id]
			if rec == nil || l >= len(rec.neighbours) {
				continue
			}
			kept = append(kept, item)
		}
		staged[l] = kept
	}
	return staged
}

// Insert waits its turn, searches for u's neighbours under a shared read
// hold, then commits the staged result under an exclusive write hold,
// re-validating against whatever changed in between (spec.md "Concurrency
// model for insertion": drop the read hold, acquire the write hold,
// re-validate staged neighbour lists before applying them). The turnstile
// admits insertions in insertion-sequence order, so both the search and
// the commit for seq start only after every earlier sequence has
// committed, and the resulting graph does not depend on goroutine
// scheduling. Search calls and Delete can still run during the search
// phase and between the two holds. buf may be nil if the caller does not
// want harvested edges (e.g. test fixtures exercising pure graph shape).
func (g *Graph) Insert(u types.ItemID, seq types.Sequence, buf *harvest.Buffer) error {
	level := g.drawLevel(u)

	g.awaitTurn(uint64(seq))
	staged, err := g.searchForInsert(u, level)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	staged = g.revalidateStaged(staged, level)

	rec := &nodeRecord{sequence: seq, neighbours: make([][]types.ItemID, level+1)}
	g.nodes[u] = rec

	touched := []types.ItemID{u}
	var scrubs []scrubEntry

	for l := 0; l <= int(level); l++ {
		rec.neighbours[l] = idsOf(staged[l])
		capL := g.params.M
		if l == 0 {
			capL = g.params.MMax0
		}
		for _, item := range staged[l] {
			evicted, has, err := g.addNeighbour(item.id, uint8(l), u, capL)
			if err != nil {
				return err
			}
			if has && evicted == u {
				removeFromList(&rec.neighbours[l], item.id)
				continue
			}
			if has {
				scrubs = append(scrubs, scrubEntry{origin: evicted, target: item.id, layer: uint8(l)})
				touched = append(touched, evicted)
			}
			touched = append(touched, item.id)
			if buf != nil {
				buf.Add(harvest.CandidateEdge{Source: u, Target: item.id, Distance: item.dist, Sequence: seq})
			}
		}
	}

	if g.entry == nil || level > g.entry.level {
		g.entry = &entryPoint{node: u, level: level}
	}

	g.applyScrubs(scrubs)
	if err := g.healConnectivity(dedupeIDs(touched)); err != nil {
		return err
	}

	g.advanceTurn()
	return nil
}
