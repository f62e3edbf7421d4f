// Package report renders the result of an inference run as a text table,
// JSON, YAML or an HTML dependency graph.
package report

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/depinfer/pkg/engine"
	"github.com/Sumatoshi-tech/depinfer/pkg/observability"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

// Summary is the serializable view of one run.
type Summary struct {
	Root         string                 `json:"root"                yaml:"root"`
	Modules      int                    `json:"modules"             yaml:"modules"`
	Files        int                    `json:"files"               yaml:"files"`
	Skipped      []string               `json:"skipped,omitempty"   yaml:"skipped,omitempty"`
	Duration     time.Duration          `json:"-"                   yaml:"-"`
	DurationMS   int64                  `json:"duration_ms"         yaml:"duration_ms"`
	Edges        map[string]int         `json:"edges"               yaml:"edges"`
	Dependencies []resolve.Dependencies `json:"dependencies"        yaml:"dependencies"`
	Ambiguous    map[string][]string    `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Cycles       [][]string             `json:"cycles,omitempty"    yaml:"cycles,omitempty"`
	BuildOrder   []string               `json:"build_order,omitempty" yaml:"build_order,omitempty"`
	Manifests    []ManifestStatus       `json:"manifests,omitempty" yaml:"manifests,omitempty"`
}

// ManifestStatus is the manifest result of one module.
type ManifestStatus struct {
	Module string `json:"module"          yaml:"module"`
	Path   string `json:"path,omitempty"  yaml:"path,omitempty"`
	Status string `json:"status"          yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSummary builds a summary. outcome may be nil when no manifest was touched.
func NewSummary(root string, analysis *engine.Analysis, outcome *engine.Outcome) Summary {
	edges := make(map[string]int, len(resolve.Kinds))
	for kind, count := range analysis.Edges() {
		edges[kind.Configuration()] = count
	}

	summary := Summary{
		Root:         root,
		Modules:      len(analysis.Modules),
		Files:        analysis.Files,
		Skipped:      analysis.Skipped,
		Duration:     analysis.Duration,
		DurationMS:   analysis.Duration.Milliseconds(),
		Edges:        edges,
		Dependencies: analysis.Dependencies,
		Ambiguous:    analysis.Ambiguous,
		Cycles:       analysis.Cycles,
	}

	if order, ok := resolve.BuildOrder(analysis.Dependencies); ok {
		summary.BuildOrder = order
	}

	if outcome != nil {
		summary.Manifests = manifestStatuses(*outcome)
	}

	return summary
}

// EdgeCount returns the total number of edges.
func (s Summary) EdgeCount() int {
	total := 0
	for _, count := range s.Edges {
		total += count
	}

	return total
}

// Status returns the manifest status of a module, or "" when unknown.
func (s Summary) Status(module string) ManifestStatus {
	for _, status := range s.Manifests {
		if status.Module == module {
			return status
		}
	}

	return ManifestStatus{Module: module}
}

func manifestStatuses(outcome engine.Outcome) []ManifestStatus {
	statuses := make([]ManifestStatus, 0, len(outcome.Changes)+len(outcome.Failed))

	for _, change := range outcome.Changes {
		status := observability.StatusUnchanged

		switch {
		case change.Written:
			status = observability.StatusWritten
		case change.Changed:
			status = observability.StatusDrift
		}

		statuses = append(statuses, ManifestStatus{Module: change.Module, Path: change.Path, Status: status})
	}

	for _, module := range outcome.FailedModules() {
		statuses = append(statuses, ManifestStatus{
			Module: module,
			Status: observability.StatusFailed,
			Error:  outcome.Failed[module].Error(),
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Module < statuses[j].Module
	})

	return statuses
}
