package resolve

import (
	"slices"

	"github.com/Sumatoshi-tech/depinfer/pkg/toposort"
)

// Graph builds the module graph of the api and implementation edges. Test
// edges are left out because a test classpath may point back at a consumer
// without forming a build cycle.
func Graph(all []Dependencies) *toposort.Graph {
	graph := toposort.NewGraph()

	for _, deps := range all {
		graph.AddNode(deps.Module)

		for _, edge := range deps.Edges() {
			if edge.Kind != KindTest {
				graph.AddEdge(edge.Consumer, edge.Provider)
			}
		}
	}

	return graph
}

// FindCycles returns the groups of modules that depend on each other through
// api or implementation edges. Each group is sorted; the result is ordered by
// the first module of each group.
func FindCycles(all []Dependencies) [][]string {
	return Graph(all).Cycles()
}

// BuildOrder returns the modules with providers before their consumers. The
// boolean is false when a cycle prevents a complete order.
func BuildOrder(all []Dependencies) ([]string, bool) {
	order, ok := Graph(all).Toposort()
	slices.Reverse(order)

	return order, ok
}
