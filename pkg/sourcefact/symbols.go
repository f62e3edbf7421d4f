package sourcefact

import "strings"

// SymbolTable maps short type names to the package they were imported from.
// It is built from a single file's imports and is the only type resolution
// the extractor performs.
type SymbolTable map[string]string

// NewSymbolTable indexes the symbols brought in by the given imports.
// Wildcard imports add nothing; aliased imports are reachable by their alias.
func NewSymbolTable(imports []Import) SymbolTable {
	table := make(SymbolTable, len(imports))

	for _, imp := range imports {
		pkg := imp.Package()

		symbol := imp.Symbol()
		if pkg == "" || symbol == "" {
			continue
		}

		table[symbol] = pkg

		if imp.Alias != "" {
			table[imp.Alias] = pkg
		}
	}

	return table
}

// Resolve returns the package of a type name as written in a declaration.
func (t SymbolTable) Resolve(typeName string) (string, bool) {
	name := NormalizeTypeName(typeName)
	if name == "" {
		return "", false
	}

	pkg, ok := t[name]

	return pkg, ok
}

// NormalizeTypeName reduces a written type to the short name used for lookups:
// generic arguments, nullability, array brackets and varargs are dropped, and
// a qualified name such as Outer.Inner resolves through its first segment.
func NormalizeTypeName(typeName string) string {
	name := strings.TrimSpace(typeName)

	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}

	name = strings.TrimSuffix(name, "...")

	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
	}

	name = strings.TrimSpace(strings.TrimSuffix(name, "?"))

	if idx := strings.IndexByte(name, '['); idx >= 0 {
		name = name[:idx]
	}

	if first, _, found := strings.Cut(name, "."); found {
		name = first
	}

	return strings.TrimSpace(name)
}
