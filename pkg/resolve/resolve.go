package resolve

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// Kind is the visibility of a dependency edge.
type Kind int

const (
	// KindAPI marks a provider forced onto consumers through the public surface.
	KindAPI Kind = iota
	// KindImplementation marks a provider used by library code.
	KindImplementation
	// KindTest marks a provider used only by test code.
	KindTest
)

// Kinds lists every kind in the order the manifest block renders them.
var Kinds = []Kind{KindAPI, KindImplementation, KindTest}

// Configuration returns the Gradle configuration name for the kind.
func (k Kind) Configuration() string {
	switch k {
	case KindAPI:
		return "api"
	case KindImplementation:
		return "implementation"
	case KindTest:
		return "testImplementation"
	default:
		return "unknown"
	}
}

// String returns the configuration name.
func (k Kind) String() string {
	return k.Configuration()
}

// MarshalText encodes the kind as its configuration name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Configuration()), nil
}

// Edge is a directed dependency from a consumer module onto a provider module.
type Edge struct {
	Consumer string `json:"consumer" yaml:"consumer"`
	Provider string `json:"provider" yaml:"provider"`
	Kind     Kind   `json:"kind"     yaml:"kind"`
}

// Dependencies holds the provider ids of one module per kind. Each list is
// strictly ascending by byte-wise comparison and never contains the module
// itself.
type Dependencies struct {
	Module         string   `json:"module"         yaml:"module"`
	API            []string `json:"api"            yaml:"api"`
	Implementation []string `json:"implementation" yaml:"implementation"`
	Test           []string `json:"test"           yaml:"test"`
}

// Providers returns the provider list of the given kind.
func (d Dependencies) Providers(kind Kind) []string {
	switch kind {
	case KindAPI:
		return d.API
	case KindImplementation:
		return d.Implementation
	case KindTest:
		return d.Test
	default:
		return nil
	}
}

// Edges flattens the lists into edges, api first, then implementation, then test.
func (d Dependencies) Edges() []Edge {
	edges := make([]Edge, 0, len(d.API)+len(d.Implementation)+len(d.Test))

	for _, kind := range Kinds {
		for _, provider := range d.Providers(kind) {
			edges = append(edges, Edge{Consumer: d.Module, Provider: provider, Kind: kind})
		}
	}

	return edges
}

// Len returns the total number of edges.
func (d Dependencies) Len() int {
	return len(d.API) + len(d.Implementation) + len(d.Test)
}

// Resolve computes the dependencies of one module. Every owner of an
// ambiguous package becomes a provider; packages without owners are ignored.
func Resolve(index *Index, module *project.Module) Dependencies {
	return Dependencies{
		Module:         module.ID,
		API:            providers(index, module.ID, module.TransitiveExportedPackages),
		Implementation: providers(index, module.ID, module.ImportedPackages),
		Test:           providers(index, module.ID, module.ImportedTestPackages),
	}
}

// ResolveAll resolves every module and returns the results sorted by module id.
func ResolveAll(index *Index, modules []*project.Module) []Dependencies {
	all := make([]Dependencies, 0, len(modules))

	for _, module := range modules {
		all = append(all, Resolve(index, module))
	}

	slices.SortFunc(all, func(a, b Dependencies) int {
		return strings.Compare(a.Module, b.Module)
	})

	return all
}

func providers(index *Index, self string, packages strset.Set) []string {
	found := strset.New()

	for pkg := range packages {
		for _, owner := range index.Owners(pkg) {
			if owner != self {
				found.Add(owner)
			}
		}
	}

	return found.Sorted()
}
