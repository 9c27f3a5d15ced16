package cluster

import (
	"math"
	"sort"
)

// densityCluster implements hierarchical density-based clustering: mutual
// reachability distances over a Euclidean metric, a minimum spanning tree
// condensed by minClusterSize, and excess-of-mass cluster selection. Points
// belonging to no stable cluster are labeled Noise. The root of the
// hierarchy is never selected, so a corpus with no internal density
// structure comes back as all noise.
func densityCluster(points [][]float64, minClusterSize, minSamples int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}

	dist := distanceMatrix(points)
	core := coreDistances(dist, minSamples)
	edges := spanningTree(dist, core)
	tree := singleLinkage(edges, n)
	condensed := condense(tree, n, minClusterSize)

	return condensed.label()
}

func distanceMatrix(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)

	for i := range dist {
		dist[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(points[i], points[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	return dist
}

func euclidean(a, b []float64) float64 {
	var sum float64

	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}

// coreDistances returns each point's distance to its minSamples-th nearest
// neighbor.
func coreDistances(dist [][]float64, minSamples int) []float64 {
	n := len(dist)
	core := make([]float64, n)

	k := minSamples
	if k > n-1 {
		k = n - 1
	}

	if k < 1 {
		return core
	}

	buf := make([]float64, n-1)

	for i := 0; i < n; i++ {
		buf = buf[:0]

		for j := 0; j < n; j++ {
			if j != i {
				buf = append(buf, dist[i][j])
			}
		}

		sort.Float64s(buf)
		core[i] = buf[k-1]
	}

	return core
}

type edge struct {
	from, to int
	weight   float64
}

// spanningTree builds a Prim MST over mutual reachability distances:
// mreach(a, b) = max(core(a), core(b), dist(a, b)).
func spanningTree(dist [][]float64, core []float64) []edge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	bestFrom := make([]int, n)

	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]edge, 0, n-1)
	current := 0
	inTree[0] = true

	for len(edges) < n-1 {
		next := -1

		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}

			w := dist[current][j]
			if core[current] > w {
				w = core[current]
			}

			if core[j] > w {
				w = core[j]
			}

			if w < best[j] {
				best[j] = w
				bestFrom[j] = current
			}

			if next == -1 || best[j] < best[next] {
				next = j
			}
		}

		edges = append(edges, edge{from: bestFrom[next], to: next, weight: best[next]})
		inTree[next] = true
		current = next
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })

	return edges
}

// linkageNode is one merge in the single-linkage dendrogram. Leaves are
// nodes 0..n-1; merges are n..2n-2.
type linkageNode struct {
	left, right int
	weight      float64
	size        int
}

func singleLinkage(edges []edge, n int) []linkageNode {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}

		return x
	}

	// node id each union-find root currently maps to
	node := make([]int, 2*n-1)
	size := make([]int, 2*n-1)

	for i := 0; i < n; i++ {
		node[i] = i
		size[i] = 1
	}

	nodes := make([]linkageNode, 0, n-1)
	nextID := n

	for _, e := range edges {
		ra, rb := find(e.from), find(e.to)
		na, nb := node[ra], node[rb]

		nodes = append(nodes, linkageNode{
			left:   na,
			right:  nb,
			weight: e.weight,
			size:   size[ra] + size[rb],
		})

		parent[ra] = nextID
		parent[rb] = nextID
		node[nextID] = nextID
		size[nextID] = size[ra] + size[rb]
		nextID++
	}

	return nodes
}

const maxLambda = 1e10

func weightToLambda(w float64) float64 {
	if w <= 1/maxLambda {
		return maxLambda
	}

	return 1 / w
}

// condensedTree is the minClusterSize-pruned hierarchy. Each point attaches
// to exactly one condensed cluster with the lambda at which it left it.
type condensedTree struct {
	parents     []int // parent condensed cluster per cluster, -1 for root
	birth       []float64
	stability   []float64
	children    [][]int
	pointOwner  []int // condensed cluster each point fell out of
	pointLambda []float64
	n           int
}

type condenseFrame struct {
	node    int // dendrogram node id
	cluster int // condensed cluster id
}

func condense(tree []linkageNode, n, minClusterSize int) *condensedTree {
	ct := &condensedTree{
		parents:     []int{-1},
		birth:       []float64{0},
		stability:   []float64{0},
		children:    [][]int{nil},
		pointOwner:  make([]int, n),
		pointLambda: make([]float64, n),
		n:           n,
	}

	if len(tree) == 0 {
		ct.pointOwner[0] = 0
		ct.pointLambda[0] = maxLambda

		return ct
	}

	root := n + len(tree) - 1
	stack := []condenseFrame{{node: root, cluster: 0}}

	nodeSize := func(id int) int {
		if id < n {
			return 1
		}

		return tree[id-n].size
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.node < n {
			// Lone leaf reached without falling out, keep at max density.
			ct.fallOut(frame.node, frame.cluster, maxLambda)
			continue
		}

		merge := tree[frame.node-n]
		lambda := weightToLambda(merge.weight)
		leftSize, rightSize := nodeSize(merge.left), nodeSize(merge.right)

		switch {
		case leftSize >= minClusterSize && rightSize >= minClusterSize:
			// True split: both sides survive as new clusters, every
			// point currently in the parent exits it here.
			ct.stability[frame.cluster] += float64(merge.size) * (lambda - ct.birth[frame.cluster])

			leftCluster := ct.addCluster(frame.cluster, lambda)
			rightCluster := ct.addCluster(frame.cluster, lambda)

			stack = append(stack,
				condenseFrame{node: merge.left, cluster: leftCluster},
				condenseFrame{node: merge.right, cluster: rightCluster},
			)
		case leftSize >= minClusterSize:
			ct.shedPoints(merge.right, frame.cluster, lambda, n, tree)
			stack = append(stack, condenseFrame{node: merge.left, cluster: frame.cluster})
		case rightSize >= minClusterSize:
			ct.shedPoints(merge.left, frame.cluster, lambda, n, tree)
			stack = append(stack, condenseFrame{node: merge.right, cluster: frame.cluster})
		default:
			ct.shedPoints(merge.left, frame.cluster, lambda, n, tree)
			ct.shedPoints(merge.right, frame.cluster, lambda, n, tree)
		}
	}

	return ct
}

func (ct *condensedTree) addCluster(parent int, birth float64) int {
	id := len(ct.parents)
	ct.parents = append(ct.parents, parent)
	ct.birth = append(ct.birth, birth)
	ct.stability = append(ct.stability, 0)
	ct.children = append(ct.children, nil)
	ct.children[parent] = append(ct.children[parent], id)

	return id
}

// shedPoints drops every leaf under node out of cluster at lambda.
func (ct *condensedTree) shedPoints(node, cluster int, lambda float64, n int, tree []linkageNode) {
	stack := []int{node}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id < n {
			ct.fallOut(id, cluster, lambda)
			continue
		}

		merge := tree[id-n]
		stack = append(stack, merge.left, merge.right)
	}
}

func (ct *condensedTree) fallOut(point, cluster int, lambda float64) {
	ct.pointOwner[point] = cluster
	ct.pointLambda[point] = lambda
	ct.stability[cluster] += lambda - ct.birth[cluster]
}

// label selects clusters by excess of mass and maps points to them. The
// root is never selected, so selection yields zero clusters when the
// hierarchy never truly splits.
func (ct *condensedTree) label() []int {
	m := len(ct.parents)
	selected := make([]bool, m)
	subtreeStability := make([]float64, m)

	// Children always have higher ids than parents, so reverse id order
	// is a bottom-up traversal.
	for c := m - 1; c >= 1; c-- {
		childSum := 0.0
		for _, ch := range ct.children[c] {
			childSum += subtreeStability[ch]
		}

		if len(ct.children[c]) == 0 || ct.stability[c] > childSum {
			selected[c] = true
			subtreeStability[c] = ct.stability[c]

			ct.deselectDescendants(c, selected)
		} else {
			subtreeStability[c] = childSum
		}
	}

	labelOf := make(map[int]int)
	next := 0

	for c := 1; c < m; c++ {
		if selected[c] {
			labelOf[c] = next
			next++
		}
	}

	labels := make([]int, ct.n)

	for p := 0; p < ct.n; p++ {
		labels[p] = Noise

		for c := ct.pointOwner[p]; c != -1; c = ct.parents[c] {
			if l, ok := labelOf[c]; ok {
				labels[p] = l
				break
			}
		}
	}

	return labels
}

func (ct *condensedTree) deselectDescendants(cluster int, selected []bool) {
	stack := append([]int(nil), ct.children[cluster]...)

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		selected[c] = false
		stack = append(stack, ct.children[c]...)
	}
}
