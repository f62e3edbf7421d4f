package sourcefact

import (
	"strings"

	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// Default namespaces that never produce module dependencies.
var (
	DefaultPlatformNamespaces = []string{"java"}
	DefaultImplicitNamespaces = []string{"kotlin", "kotlinx"}
)

// Filter drops packages that are always available to every module: the host
// platform's namespace and the language's own standard and extension libraries.
type Filter struct {
	namespaces []string
}

// NewFilter builds a filter over both namespace lists.
func NewFilter(platform, implicit []string) *Filter {
	namespaces := make([]string, 0, len(platform)+len(implicit))

	for _, ns := range append(append([]string{}, platform...), implicit...) {
		ns = strings.TrimSuffix(strings.TrimSpace(ns), ".")
		if ns != "" {
			namespaces = append(namespaces, ns)
		}
	}

	return &Filter{namespaces: namespaces}
}

// DefaultFilter returns the filter over the default namespaces.
func DefaultFilter() *Filter {
	return NewFilter(DefaultPlatformNamespaces, DefaultImplicitNamespaces)
}

// Excluded reports whether pkg equals a configured namespace or lives under one.
func (f *Filter) Excluded(pkg string) bool {
	for _, ns := range f.namespaces {
		if pkg == ns || strings.HasPrefix(pkg, ns+".") {
			return true
		}
	}

	return false
}

// Apply returns a new set without the excluded packages.
func (f *Filter) Apply(packages strset.Set) strset.Set {
	kept := strset.New()

	for pkg := range packages {
		if !f.Excluded(pkg) {
			kept.Add(pkg)
		}
	}

	return kept
}
