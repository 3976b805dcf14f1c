// Package cache provides DistanceCache: a concurrent, bounded memoisation
// layer in front of a DataSource's pairwise distance function, plus the
// deterministic tie-break rule every downstream stage uses for neighbour
// selection.
package cache

import (
	"container/list"
	"hash/maphash"
	"math"
	"sync"

	"github.com/leynos/chutoro-go/pkg/types"
)

// Source is the subset of DataSource the cache needs. chutoro.DataSource
// satisfies this structurally; cache never imports the root package.
type Source interface {
	Distance(i, j types.ItemID) (float32, error)
	Name() string
}

const defaultShardCount = 16

// Cache memoises Source.Distance under concurrent access. Keys are
// canonicalised so (i,j) and (j,i) collide. It is safe for concurrent
// Get calls and safe to share across every worker goroutine in a build.
type Cache struct {
	shards    []shard
	seed      maphash.Seed
	maxPerShard int
}

type shard struct {
	mu      sync.Mutex
	entries map[key]*list.Element
	order   *list.List // front = most recently used
	cap     int
}

type key struct {
	lo, hi types.ItemID
}

type entry struct {
	k key
	v float32
}

// New creates a Cache bounded by maxEntries total, spread evenly across an
// internal shard set (16 shards by default) so that concurrent insertions
// from different HNSW workers rarely contend on the same lock.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1 << 20 // spec default: 1,048,576
	}
	shardCount := defaultShardCount
	perShard := maxEntries / shardCount
	if perShard < 1 {
		perShard = 1
	}
	c := &Cache{
		shards:      make([]shard, shardCount),
		seed:        maphash.MakeSeed(),
		maxPerShard: perShard,
	}
	for i := range c.shards {
		c.shards[i] = shard{
			entries: make(map[key]*list.Element),
			order:   list.New(),
			cap:     perShard,
		}
	}
	return c
}

func canonical(i, j types.ItemID) key {
	if i <= j {
		return key{lo: i, hi: j}
	}
	return key{lo: j, hi: i}
}

func (c *Cache) shardFor(k key) *shard {
	var h maphash.Hash
	h.SetSeed(c.seed)
	var buf [8]byte
	putItemID(buf[0:4], k.lo)
	putItemID(buf[4:8], k.hi)
	h.Write(buf[:])
	return &c.shards[h.Sum64()%uint64(len(c.shards))]
}

func putItemID(b []byte, id types.ItemID) {
	u := uint32(id)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

// GetOrCompute returns the cached distance between i and j, computing and
// storing it via src.Distance if absent. NaN results are never cached and
// are propagated as a DistanceError so the caller can abort its stage.
func (c *Cache) GetOrCompute(i, j types.ItemID, src Source) (float32, error) {
	k := canonical(i, j)
	s := c.shardFor(k)

	s.mu.Lock()
	if el, ok := s.entries[k]; ok {
		s.order.MoveToFront(el)
		v := el.Value.(*entry).v
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	d, err := src.Distance(i, j)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(float64(d)) {
		return 0, &types.DistanceError{Code: types.DistanceErrorInvalidValue, Source: src.Name()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[k]; ok {
		s.order.MoveToFront(el)
		return el.Value.(*entry).v, nil
	}
	el := s.order.PushFront(&entry{k: k, v: d})
	s.entries[k] = el
	if len(s.entries) > s.cap {
		back := s.order.Back()
		if back != nil {
			s.order.Remove(back)
			delete(s.entries, back.Value.(*entry).k)
		}
	}
	return d, nil
}

// Len returns the total number of cached entries across all shards.
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		n += len(c.shards[i].entries)
		c.shards[i].mu.Unlock()
	}
	return n
}

// PreferLower implements the cross-stage tie-break rule: given two
// candidates at equal distance, prefer the lower ItemID, then the lower
// insertion sequence. Returns true if a should be preferred over b.
func PreferLower(aID, bID types.ItemID, aSeq, bSeq types.Sequence) bool {
	if aID != bID {
		return aID < bID
	}
	return aSeq < bSeq
}
