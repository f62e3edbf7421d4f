// Package toposort orders the nodes of a directed module graph and finds its
// dependency cycles.
package toposort

import (
	"slices"
	"sort"
	"strings"
)

// Graph is a directed graph over named nodes. It is not safe for concurrent
// mutation.
type Graph struct {
	symbols *SymbolTable
	// nodes[u] holds the targets of edges leaving u.
	nodes    [][]int
	inDegree []int
}

// NewGraph initializes a new Graph.
func NewGraph() *Graph {
	return &Graph{symbols: NewSymbolTable()}
}

// AddNode inserts a node. It returns false when the node already exists.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.symbols.Lookup(name); exists {
		return false
	}

	g.ensure(g.symbols.Intern(name))

	return true
}

// AddEdge inserts the link from "from" node to "to" node, creating both nodes
// as needed. It returns false when the edge already exists.
func (g *Graph) AddEdge(from, to string) bool {
	u := g.symbols.Intern(from)
	v := g.symbols.Intern(to)
	g.ensure(max(u, v))

	if slices.Contains(g.nodes[u], v) {
		return false
	}

	g.nodes[u] = append(g.nodes[u], v)
	g.inDegree[v]++

	return true
}

func (g *Graph) ensure(id int) {
	for len(g.nodes) <= id {
		g.nodes = append(g.nodes, nil)
		g.inDegree = append(g.inDegree, 0)
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// FindChildren returns the other ends of outgoing edges, sorted.
func (g *Graph) FindChildren(from string) []string {
	u, exists := g.symbols.Lookup(from)
	if !exists {
		return []string{}
	}

	children := make([]string, len(g.nodes[u]))
	for i, v := range g.nodes[u] {
		children[i] = g.symbols.Resolve(v)
	}

	sort.Strings(children)

	return children
}

// Toposort sorts the nodes in topological order using Kahn's algorithm,
// choosing the lexicographically smallest available node first. The boolean
// is false when the graph has a cycle; the result then holds only the nodes
// outside of any cycle and their acyclic prefix.
func (g *Graph) Toposort() ([]string, bool) {
	inDegree := slices.Clone(g.inDegree)

	var queue []string

	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, g.symbols.Resolve(id))
		}
	}

	sort.Strings(queue)

	result := make([]string, 0, len(g.nodes))

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		u, _ := g.symbols.Lookup(name)
		for _, v := range g.nodes[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = insertSorted(queue, g.symbols.Resolve(v))
			}
		}
	}

	return result, len(result) == len(g.nodes)
}

// Cycles returns the strongly connected components that contain a cycle:
// groups of two or more nodes, or a single node with an edge to itself.
// Each group is sorted, and groups are ordered by their first node.
func (g *Graph) Cycles() [][]string {
	tarjan := &tarjanState{
		graph:   g,
		index:   make([]int, len(g.nodes)),
		lowlink: make([]int, len(g.nodes)),
		onStack: make([]bool, len(g.nodes)),
	}

	for i := range tarjan.index {
		tarjan.index[i] = -1
	}

	for id := range g.nodes {
		if tarjan.index[id] < 0 {
			tarjan.connect(id)
		}
	}

	slices.SortFunc(tarjan.groups, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})

	return tarjan.groups
}

type tarjanState struct {
	graph   *Graph
	counter int
	index   []int
	lowlink []int
	onStack []bool
	stack   []int
	groups  [][]string
}

func (t *tarjanState) connect(u int) {
	t.index[u] = t.counter
	t.lowlink[u] = t.counter
	t.counter++
	t.stack = append(t.stack, u)
	t.onStack[u] = true

	for _, v := range t.graph.nodes[u] {
		switch {
		case t.index[v] < 0:
			t.connect(v)
			t.lowlink[u] = min(t.lowlink[u], t.lowlink[v])
		case t.onStack[v]:
			t.lowlink[u] = min(t.lowlink[u], t.index[v])
		}
	}

	if t.lowlink[u] != t.index[u] {
		return
	}

	var component []int

	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		component = append(component, top)

		if top == u {
			break
		}
	}

	if len(component) == 1 && !slices.Contains(t.graph.nodes[u], u) {
		return
	}

	names := make([]string, len(component))
	for i, id := range component {
		names[i] = t.graph.symbols.Resolve(id)
	}

	sort.Strings(names)
	t.groups = append(t.groups, names)
}

// insertSorted inserts name into the sorted slice s.
func insertSorted(s []string, name string) []string {
	i := sort.SearchStrings(s, name)

	return slices.Insert(s, i, name)
}
