package hnsw

import (
	"container/heap"

	"github.com/leynos/chutoro-go/pkg/cache"
	"github.com/leynos/chutoro-go/pkg/types"
)

// heapItem is one scored candidate during a beam search.
type heapItem struct {
	id   types.ItemID
	dist float32
	seq  types.Sequence
}

// less breaks distance ties via the shared CACHE-1 tie-break rule so that
// heap pop order is fully deterministic regardless of push order.
func less(a, b heapItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return cache.PreferLower(a.id, b.id, a.seq, b.seq)
}

// minHeap pops the closest candidate first; it drives beam-search expansion.
type minHeap []heapItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap pops the furthest candidate first; it bounds the "best found so
// far" set to ef entries during beam search and backs eviction scans.
type maxHeap []heapItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var (
	_ heap.Interface = (*minHeap)(nil)
	_ heap.Interface = (*maxHeap)(nil)
)
