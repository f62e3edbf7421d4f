// Package resolve maps the package sets of aggregated modules to categorized
// dependency edges between modules.
package resolve

import (
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// Index maps each package to the modules that declare it. It is read-only
// once built and safe for concurrent readers.
type Index struct {
	owners map[string]strset.Set
}

// BuildIndex inverts the exported packages of every module.
func BuildIndex(modules []*project.Module) *Index {
	index := &Index{owners: make(map[string]strset.Set)}

	for _, module := range modules {
		for pkg := range module.ExportedPackages {
			owners, ok := index.owners[pkg]
			if !ok {
				owners = strset.New()
				index.owners[pkg] = owners
			}

			owners.Add(module.ID)
		}
	}

	return index
}

// Owners returns the ids of the modules declaring pkg, sorted.
// An external package has no owners.
func (i *Index) Owners(pkg string) []string {
	owners, ok := i.owners[pkg]
	if !ok {
		return nil
	}

	return owners.Sorted()
}

// Ambiguous returns the packages declared by more than one module, with
// their sorted owners.
func (i *Index) Ambiguous() map[string][]string {
	ambiguous := make(map[string][]string)

	for pkg, owners := range i.owners {
		if owners.Len() > 1 {
			ambiguous[pkg] = owners.Sorted()
		}
	}

	return ambiguous
}

// Packages returns every owned package, sorted.
func (i *Index) Packages() []string {
	return slices.Sorted(maps.Keys(i.owners))
}
