package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

const (
	graphTitle      = "Module dependencies"
	graphHeight     = "900px"
	graphRepulsion  = 600
	graphEdgeLength = 120
	nodeSymbolSize  = 18
)

// edgeLineTypes distinguishes the edge kinds in the graph.
var edgeLineTypes = map[resolve.Kind]string{
	resolve.KindAPI:            "solid",
	resolve.KindImplementation: "dashed",
	resolve.KindTest:           "dotted",
}

// WriteGraph renders deps as a standalone HTML page with a force-directed
// graph. Nodes are modules; edges point from consumer to provider.
func WriteGraph(w io.Writer, deps []resolve.Dependencies) error {
	graph := BuildGraph(deps)

	err := graph.Render(w)
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}

	return nil
}

// BuildGraph builds the echarts graph of deps.
func BuildGraph(deps []resolve.Dependencies) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: graphTitle,
			Width:     "100%",
			Height:    graphHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: graphTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	nodes, links := graphData(deps)

	graph.AddSeries("modules", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:     "force",
			Roam:       opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
			Force: &opts.GraphForce{
				Repulsion:  graphRepulsion,
				EdgeLength: graphEdgeLength,
			},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	return graph
}

func graphData(deps []resolve.Dependencies) ([]opts.GraphNode, []opts.GraphLink) {
	ids := strset.New()

	var links []opts.GraphLink

	for _, dep := range deps {
		ids.Add(dep.Module)

		for _, edge := range dep.Edges() {
			ids.Add(edge.Provider)
			links = append(links, opts.GraphLink{
				Source: edge.Consumer,
				Target: edge.Provider,
				LineStyle: &opts.LineStyle{
					Type: edgeLineTypes[edge.Kind],
				},
			})
		}
	}

	sorted := ids.Sorted()
	nodes := make([]opts.GraphNode, 0, len(sorted))

	for _, id := range sorted {
		nodes = append(nodes, opts.GraphNode{Name: id, SymbolSize: nodeSymbolSize})
	}

	return nodes, links
}
