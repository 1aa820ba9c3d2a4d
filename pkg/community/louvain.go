// Package community implements Louvain community detection over the weighted,
// undirected projection of the knowledge graph. The implementation is
// deterministic for a fixed seed so repeated ingestion runs assign stable
// community labels.
package community

import (
	"fmt"
	"math/rand"
	"sort"
)

// Graph is a weighted undirected multigraph accumulator. Adding the same edge
// twice sums the weights. Self-loops on input are ignored; they only appear
// internally on aggregated graphs.
type Graph struct {
	nodes     []string
	index     map[string]int
	adjacency map[string]map[string]float64
}

func NewGraph() *Graph {
	return &Graph{
		index:     make(map[string]int),
		adjacency: make(map[string]map[string]float64),
	}
}

// AddNode registers a node. Safe to call repeatedly with the same ID.
func (g *Graph) AddNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.adjacency[id] = make(map[string]float64)
}

// AddEdge adds an undirected edge with the given weight, creating the
// endpoints if needed.
func (g *Graph) AddEdge(a, b string, weight float64) {
	if a == b || weight <= 0 {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	g.adjacency[a][b] += weight
	g.adjacency[b][a] += weight
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Options tunes the detection run.
type Options struct {
	// Resolution scales community granularity; values above 1 favor more,
	// smaller communities. Zero means the default of 1.0.
	Resolution float64
	// MaxPasses bounds the aggregation levels. Zero means the default of 10.
	MaxPasses int
	// Seed fixes the node visit order. The same seed and graph always
	// produce the same partition.
	Seed int64
}

// Detect runs Louvain on g and returns a node-to-community assignment. Labels
// are small decimal strings ("0", "1", ...) ordered by first appearance of a
// member node, so they are stable across runs. Every node of g is assigned;
// isolated nodes each form their own community. An empty graph yields an
// empty assignment.
func Detect(g *Graph, opts Options) map[string]string {
	if g == nil || len(g.nodes) == 0 {
		return map[string]string{}
	}

	resolution := opts.Resolution
	if resolution <= 0 {
		resolution = 1.0
	}
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 10
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	// assignment maps original nodes into the current aggregated level
	assignment := make(map[string]string, len(g.nodes))
	for _, n := range g.nodes {
		assignment[n] = n
	}

	level := g
	for pass := 0; pass < maxPasses; pass++ {
		partition, moved := localMove(level, resolution, rng)
		for node, agg := range assignment {
			assignment[node] = partition[agg]
		}
		if !moved {
			break
		}
		level = aggregate(level, partition)
	}

	return relabel(g.nodes, assignment)
}

// localMove runs the first Louvain phase on one level: nodes greedily move to
// the neighboring community with the highest modularity gain until a full
// sweep makes no move.
func localMove(g *Graph, resolution float64, rng *rand.Rand) (map[string]string, bool) {
	community := make(map[string]string, len(g.nodes))
	degree := make(map[string]float64, len(g.nodes))
	communityTotal := make(map[string]float64, len(g.nodes))

	var m float64
	for _, n := range g.nodes {
		community[n] = n
		var k float64
		for peer, w := range g.adjacency[n] {
			if peer == n {
				k += 2 * w
				m += w
			} else {
				k += w
				m += w / 2
			}
		}
		degree[n] = k
		communityTotal[n] = k
	}

	if m == 0 {
		return community, false
	}

	order := make([]string, len(g.nodes))
	copy(order, g.nodes)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	anyMoved := false
	for sweep := 0; sweep < 100; sweep++ {
		moved := false
		for _, n := range order {
			current := community[n]

			// weight from n into each neighboring community
			neighborWeight := make(map[string]float64)
			for peer, w := range g.adjacency[n] {
				if peer == n {
					continue
				}
				neighborWeight[community[peer]] += w
			}

			communityTotal[current] -= degree[n]

			bestCommunity := current
			bestGain := neighborWeight[current] - resolution*communityTotal[current]*degree[n]/(2*m)
			for c, w := range neighborWeight {
				if c == current {
					continue
				}
				gain := w - resolution*communityTotal[c]*degree[n]/(2*m)
				if gain > bestGain || (gain == bestGain && c < bestCommunity) {
					bestGain = gain
					bestCommunity = c
				}
			}

			communityTotal[bestCommunity] += degree[n]
			if bestCommunity != current {
				community[n] = bestCommunity
				moved = true
				anyMoved = true
			}
		}
		if !moved {
			break
		}
	}

	return community, anyMoved
}

// aggregate builds the next-level graph: one node per community, edge weights
// summed, intra-community weight folded into self-loops.
func aggregate(g *Graph, partition map[string]string) *Graph {
	next := NewGraph()

	for _, n := range g.nodes {
		next.AddNode(partition[n])
	}
	for _, n := range g.nodes {
		cn := partition[n]
		for peer, w := range g.adjacency[n] {
			if peer == n {
				next.adjacency[cn][cn] += w
				continue
			}
			cp := partition[peer]
			if cn == cp {
				// each undirected edge is visited from both ends
				next.adjacency[cn][cn] += w / 2
				continue
			}
			next.adjacency[cn][cp] += w
		}
	}
	return next
}

// relabel maps internal community keys to compact decimal labels ordered by
// first member appearance in the original node order.
func relabel(nodes []string, assignment map[string]string) map[string]string {
	labels := make(map[string]string)
	out := make(map[string]string, len(nodes))
	for _, n := range nodes {
		c := assignment[n]
		label, ok := labels[c]
		if !ok {
			label = fmt.Sprintf("%d", len(labels))
			labels[c] = label
		}
		out[n] = label
	}
	return out
}

// Members inverts an assignment into community -> sorted member list.
func Members(assignment map[string]string) map[string][]string {
	out := make(map[string][]string)
	for node, c := range assignment {
		out[c] = append(out[c], node)
	}
	for c := range out {
		sort.Strings(out[c])
	}
	return out
}
