package hnsw

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/leynos/chutoro-go/pkg/cache"
	"github.com/leynos/chutoro-go/pkg/types"
)

// nodeRecord is one item's adjacency across every layer it participates in.
// neighbours[l] holds the node's layer-l neighbour IDs; len(neighbours) is
// the node's level count (invariant: a node present at layer l is present
// at every layer below it).
type nodeRecord struct {
	sequence   types.Sequence
	neighbours [][]types.ItemID
}

type entryPoint struct {
	node  types.ItemID
	level uint8
}

// Graph is a concurrency-safe HNSW index over a cache.Source distance
// oracle. Search (beam search, greedy descent) only ever needs a read hold;
// committing a new node's adjacency needs an exclusive write hold. Insertions
// (their neighbour search and their commit) are additionally serialised into
// insertion-sequence order via a turnstile so that a build's resulting graph
// is reproducible independent of
// goroutine scheduling (DETERMINISM-1), matching this package's contract
// that "the next insertion's commit" only begins once the current one,
// including its deferred scrub, has completed.
type Graph struct {
	mu sync.RWMutex

	turnMu     sync.Mutex
	turnCond   *sync.Cond
	nextCommit uint64

	params Params
	cache  *cache.Cache
	src    cache.Source
	seed   uint64

	nodes []*nodeRecord
	entry *entryPoint
}

// New constructs an empty Graph sized for up to capacity items.
func New(capacity int, params Params, src cache.Source, dc *cache.Cache, seed uint64) *Graph {
	g := &Graph{
		params: params,
		cache:  dc,
		src:    src,
		seed:   seed,
		nodes:  make([]*nodeRecord, capacity),
	}
	g.turnCond = sync.NewCond(&g.turnMu)
	return g
}

// Len reports the number of committed nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, r := range g.nodes {
		if r != nil {
			n++
		}
	}
	return n
}

// EntryPoint returns the current entry node and its level, or ok=false if
// the graph is empty.
func (g *Graph) EntryPoint() (types.ItemID, uint8, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.entry == nil {
		return 0, 0, false
	}
	return g.entry.node, g.entry.level, true
}

// neighboursLocked returns u's layer-l neighbour list itself (not a copy),
// or nil if u has no presence at layer l. Caller must hold at least a read
// lock.
func (g *Graph) neighboursLocked(u types.ItemID, layer uint8) []types.ItemID {
	r := g.nodes[u]
	if r == nil || int(layer) >= len(r.neighbours) {
		return nil
	}
	return r.neighbours[layer]
}

// Neighbours is the public, locked accessor used by tests and by downstream
// stages (mrd's core-distance lookup reuses layer 0 directly via Search).
func (g *Graph) Neighbours(u types.ItemID, layer uint8) []types.ItemID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := g.neighboursLocked(u, layer)
	cp := make([]types.ItemID, len(out))
	copy(cp, out)
	return cp
}

// LevelCount returns how many layers u participates in (0 if u is absent).
func (g *Graph) LevelCount(u types.ItemID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.nodes[u]
	if r == nil {
		return 0
	}
	return len(r.neighbours)
}

func (g *Graph) dist(i, j types.ItemID) (float32, error) {
	if i == j {
		return 0, nil
	}
	return g.cache.GetOrCompute(i, j, g.src)
}

// drawLevel is a pure function of (seed, u): the level a node is assigned
// does not depend on insertion timing or worker scheduling, only on the
// run's seed and the item's own ID (SPEC_FULL.md determinism discussion).
func (g *Graph) drawLevel(u types.ItemID) uint8 {
	src := rand.NewSource(g.seed ^ uint64(uint32(u))*0x9E3779B97F4A7C15)
	r := rand.New(src).Float64() // [0, 1)
	level := -math.Log(1-r) * g.params.LevelFactor
	if level > maxLevel {
		level = maxLevel
	}
	if level < 0 {
		level = 0
	}
	return uint8(level)
}

func (g *Graph) awaitTurn(seq uint64) {
	g.turnMu.Lock()
	for g.nextCommit != seq {
		g.turnCond.Wait()
	}
	g.turnMu.Unlock()
}

func (g *Graph) advanceTurn() {
	g.turnMu.Lock()
	g.nextCommit++
	g.turnCond.Broadcast()
	g.turnMu.Unlock()
}
