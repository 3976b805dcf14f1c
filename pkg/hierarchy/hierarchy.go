// Package hierarchy condenses a minimum spanning forest into a cluster
// tree and selects the flat clustering with the greatest total stability,
// the HDBSCAN*-style extraction step that turns a single-linkage structure
// into labelled clusters plus noise.
package hierarchy

import (
	"math"
	"sort"

	"github.com/leynos/chutoro-go/pkg/mst"
	"github.com/leynos/chutoro-go/pkg/types"
)

// Result is the flat clustering hierarchy produces. Assignments uses
// types.NoiseID as its sentinel; the root package remaps it to
// ClusterCount at the public API boundary (SPEC_FULL.md §4.6/§9).
type Result struct {
	Assignments  []types.ClusterID
	ClusterCount int
}

// dendroNode is one internal merge event in the single-linkage dendrogram
// built from the spanning forest: ids [0,n) are leaves (items), ids
// [n, 2n-1) index into this slice via id-n.
type dendroNode struct {
	left, right int
	weight      float32
	size        int
}

// buildDendrogram replays the forest's edges (already in ascending weight
// order from ParallelKruskal) through a union-find, recording each merge as
// an internal node — the standard bottom-up single-linkage construction.
// The forest may span several disjoint components (e.g. uniform-noise or
// widely-separated input); roots returns one top-level dendrogram node id
// per component that had at least one merge (a singleton component with no
// edges at all is never represented here and is left as noise).
func buildDendrogram(forest mst.Forest, n int) (nodes []dendroNode, roots []int) {
	uf := mst.NewUnionFind(n)
	repNode := make([]int, n) // repNode[root] = dendrogram node id representing that component
	for i := range repNode {
		repNode[i] = i
	}
	nodeSize := make(map[int]int, n-1)
	for i := 0; i < n; i++ {
		nodeSize[i] = 1
	}

	nodes = make([]dendroNode, 0, n-1)
	nextID := n
	for _, e := range forest.Edges {
		ru, rv := uf.Find(int(e.Source)), uf.Find(int(e.Target))
		if ru == rv {
			continue
		}
		left, right := repNode[ru], repNode[rv]
		combinedSize := nodeSize[left] + nodeSize[right]
		nodes = append(nodes, dendroNode{left: left, right: right, weight: e.Weight, size: combinedSize})
		nodeSize[nextID] = combinedSize
		uf.Union(ru, rv)
		newRoot := uf.Find(ru)
		repNode[newRoot] = nextID
		nextID++
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		r := repNode[uf.Find(i)]
		if r < n || seen[r] {
			continue
		}
		seen[r] = true
		roots = append(roots, r)
	}
	return nodes, roots
}

func sizeOf(nodes []dendroNode, n, id int) int {
	if id < n {
		return 1
	}
	return nodes[id-n].size
}

func flattenLeaves(nodes []dendroNode, n, id int) []types.ItemID {
	if id < n {
		return []types.ItemID{types.ItemID(id)}
	}
	node := nodes[id-n]
	out := flattenLeaves(nodes, n, node.left)
	out = append(out, flattenLeaves(nodes, n, node.right)...)
	return out
}

type fallOff struct {
	item   types.ItemID
	weight float64
}

type cluster struct {
	id            int
	parent        int
	rootNodeID    int
	birthWeight   float64
	deathWeight   float64
	children      []int
	directMembers []fallOff
	stability     float64
}

// condense walks the dendrogram top-down from the root, splitting the
// current cluster whenever both sides of a merge clear minClusterSize and
// otherwise absorbing the points of each side below minClusterSize (one
// side or both) as direct fall-offs of the current cluster (spec.md §4.6
// step 1).
func condense(nodes []dendroNode, n, minClusterSize, rootID int) []*cluster {
	var clusters []*cluster
	newCluster := func(parent, rootNodeID int, birth float64) *cluster {
		c := &cluster{id: len(clusters), parent: parent, rootNodeID: rootNodeID, birthWeight: birth}
		clusters = append(clusters, c)
		return c
	}
	root := newCluster(-1, rootID, math.Inf(1))

	var descend func(nodeID int, atWeight float64, current *cluster)
	descend = func(nodeID int, atWeight float64, current *cluster) {
		if nodeID < n {
			current.directMembers = append(current.directMembers, fallOff{item: types.ItemID(nodeID), weight: atWeight})
			return
		}
		node := nodes[nodeID-n]
		leftSize := sizeOf(nodes, n, node.left)
		rightSize := sizeOf(nodes, n, node.right)
		w := float64(node.weight)

		if leftSize >= minClusterSize && rightSize >= minClusterSize {
			current.deathWeight = w
			leftC := newCluster(current.id, node.left, w)
			rightC := newCluster(current.id, node.right, w)
			current.children = append(current.children, leftC.id, rightC.id)
			descend(node.left, w, leftC)
			descend(node.right, w, rightC)
			return
		}

		for _, side := range [2]int{node.left, node.right} {
			if sizeOf(nodes, n, side) < minClusterSize {
				for _, leaf := range flattenLeaves(nodes, n, side) {
					current.directMembers = append(current.directMembers, fallOff{item: leaf, weight: w})
				}
			} else {
				descend(side, w, current)
			}
		}
	}
	descend(rootID, math.Inf(1), root)

	for _, c := range clusters {
		var s float64
		for _, f := range c.directMembers {
			s += 1/f.weight - 1/c.birthWeight
		}
		c.stability = s
	}
	return clusters
}

// selectClusters performs the bottom-up stability comparison (spec.md §4.6
// step 3): at each internal node, compare the node's own stability against
// the sum of its children's best selections, favouring children on ties.
func selectClusters(clusters []*cluster, id int) (float64, []int) {
	c := clusters[id]
	if len(c.children) == 0 {
		return c.stability, []int{c.id}
	}
	var childValue float64
	var childChosen []int
	for _, childID := range c.children {
		v, sel := selectClusters(clusters, childID)
		childValue += v
		childChosen = append(childChosen, sel...)
	}
	if c.stability > childValue {
		return c.stability, []int{c.id}
	}
	return childValue, childChosen
}

// Extract builds the condensed tree from forest, selects the stable flat
// clustering, and labels clusters contiguously from 0 ordered by each
// cluster's lowest member ID (spec.md §4.6 step 4).
func Extract(forest mst.Forest, n, minClusterSize int) (Result, error) {
	assignments := make([]types.ClusterID, n)
	for i := range assignments {
		assignments[i] = types.NoiseID
	}
	if n == 0 {
		return Result{Assignments: assignments, ClusterCount: 0}, nil
	}
	if n == 1 {
		return Result{Assignments: assignments, ClusterCount: 0}, nil
	}

	nodes, roots := buildDendrogram(forest, n)
	if len(nodes) == 0 {
		return Result{Assignments: assignments, ClusterCount: 0}, nil
	}

	type labelled struct {
		minMember types.ItemID
		members   []types.ItemID
	}
	var labels []labelled
	// Each root is a separate component of the candidate graph: condense and
	// select independently, then pool every component's chosen clusters
	// before the single joint labeling pass below.
	for _, rootID := range roots {
		clusters := condense(nodes, n, minClusterSize, rootID)
		_, selected := selectClusters(clusters, 0)
		for _, cid := range selected {
			members := flattenLeaves(nodes, n, clusters[cid].rootNodeID)
			min := members[0]
			for _, m := range members[1:] {
				if m < min {
					min = m
				}
			}
			labels = append(labels, labelled{minMember: min, members: members})
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].minMember < labels[j].minMember })

	for label, l := range labels {
		for _, m := range l.members {
			assignments[m] = types.ClusterID(label)
		}
	}

	return Result{Assignments: assignments, ClusterCount: len(labels)}, nil
}
