// Package project models the modules of a source tree and folds per-file
// source facts into per-module package sets.
package project

import (
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// RootID is the id of a module rooted at the tree root itself.
const RootID = ":"

// ModuleID derives the colon-delimited id of a module from its path
// relative to the tree root: "services/foo" becomes ":services:foo".
func ModuleID(relativePath string) string {
	rel := filepath.ToSlash(filepath.Clean(relativePath))
	if rel == "." || rel == "" {
		return RootID
	}

	var builder strings.Builder

	for segment := range strings.SplitSeq(rel, "/") {
		if segment == "" || segment == "." {
			continue
		}

		builder.WriteByte(':')
		builder.WriteString(segment)
	}

	if builder.Len() == 0 {
		return RootID
	}

	return builder.String()
}

// SourceFile is one file listed for a module.
type SourceFile struct {
	Path     string
	Origin   sourcefact.Origin
	Language sourcefact.Language
}

// Descriptor is a discovered module root and its source listing.
type Descriptor struct {
	ID           string
	RelativePath string
	Dir          string
	Manifest     string
	Files        []SourceFile
}

// Module is the aggregate of every source unit of one module.
type Module struct {
	ID                         string     `json:"id"                           yaml:"id"`
	RelativePath               string     `json:"relative_path"                yaml:"relative_path"`
	ExportedPackages           strset.Set `json:"exported_packages"            yaml:"exported_packages"`
	ImportedPackages           strset.Set `json:"imported_packages"            yaml:"imported_packages"`
	TransitiveExportedPackages strset.Set `json:"transitive_exported_packages" yaml:"transitive_exported_packages"`
	ImportedTestPackages       strset.Set `json:"imported_test_packages"       yaml:"imported_test_packages"`
}

// NewModule returns an empty module accumulator.
func NewModule(id, relativePath string) *Module {
	return &Module{
		ID:                         id,
		RelativePath:               relativePath,
		ExportedPackages:           strset.New(),
		ImportedPackages:           strset.New(),
		TransitiveExportedPackages: strset.New(),
		ImportedTestPackages:       strset.New(),
	}
}

// Add folds one source unit into the module. Library units feed the
// exported, imported and transitive sets; test units feed only the test
// import set. An undeclared package is not exported.
func (m *Module) Add(unit sourcefact.SourceUnit) {
	if unit.Origin == sourcefact.OriginTest {
		m.ImportedTestPackages.Union(unit.ImportedPackages)

		return
	}

	if unit.DeclaredPackage != "" {
		m.ExportedPackages.Add(unit.DeclaredPackage)
	}

	m.ImportedPackages.Union(unit.ImportedPackages)
	m.TransitiveExportedPackages.Union(unit.ExportedPackages)
}

// Merge folds another accumulator of the same module into m.
func (m *Module) Merge(other *Module) {
	m.ExportedPackages.Union(other.ExportedPackages)
	m.ImportedPackages.Union(other.ImportedPackages)
	m.TransitiveExportedPackages.Union(other.TransitiveExportedPackages)
	m.ImportedTestPackages.Union(other.ImportedTestPackages)
}

// Equal reports whether both modules carry the same id and package sets.
func (m *Module) Equal(other *Module) bool {
	return m.ID == other.ID &&
		m.ExportedPackages.Equal(other.ExportedPackages) &&
		m.ImportedPackages.Equal(other.ImportedPackages) &&
		m.TransitiveExportedPackages.Equal(other.TransitiveExportedPackages) &&
		m.ImportedTestPackages.Equal(other.ImportedTestPackages)
}

// Fold builds a module from its source units. The result does not depend on
// the order of units.
func Fold(id, relativePath string, units ...sourcefact.SourceUnit) *Module {
	module := NewModule(id, relativePath)

	for _, unit := range units {
		module.Add(unit)
	}

	return module
}
