package sourcefact

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// wholeFile names the pseudo-declaration used when an entire file cannot be parsed.
const wholeFile = "<file>"

// Extractor produces SourceUnits from file contents. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	filter  *Filter
	surface SurfaceFunc
	logger  *slog.Logger
	onFail  func(context.Context, *SurfaceInferenceError)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFilter sets the namespace filter applied to imported and exported packages.
func WithFilter(filter *Filter) Option {
	return func(e *Extractor) {
		e.filter = filter
	}
}

// WithSurface sets the parser used for surface inference.
// Without it no exported packages are inferred.
func WithSurface(fn SurfaceFunc) Option {
	return func(e *Extractor) {
		e.surface = fn
	}
}

// WithLogger sets the logger that receives surface inference diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithSurfaceFailureHook sets a callback run for every recovered surface
// inference failure, after it is logged.
func WithSurfaceFailureHook(fn func(context.Context, *SurfaceInferenceError)) Option {
	return func(e *Extractor) {
		e.onFail = fn
	}
}

// NewExtractor creates an Extractor with the default filter and no surface parser.
func NewExtractor(opts ...Option) *Extractor {
	extractor := &Extractor{
		filter: DefaultFilter(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(extractor)
	}

	return extractor
}

// Extract reads the facts of one file. A MalformedDeclarationError is
// returned for a package, import or option line that cannot be parsed;
// surface inference problems are logged and never returned.
func (e *Extractor) Extract(ctx context.Context, file File) (SourceUnit, error) {
	err := ctx.Err()
	if err != nil {
		return SourceUnit{}, err
	}

	if file.Language.Kind() == KindSchema {
		return e.extractSchema(file)
	}

	return e.extractGeneral(ctx, file)
}

func (e *Extractor) extractSchema(file File) (SourceUnit, error) {
	unit := newUnit(file)

	for idx, line := range splitLines(file.Content) {
		if !IsJavaPackageOptionLine(line) {
			continue
		}

		pkg, err := ParseJavaPackageOption(line)
		if err != nil {
			return SourceUnit{}, malformed(file.Path, idx, line, err)
		}

		unit.DeclaredPackage = pkg

		break
	}

	return unit, nil
}

func (e *Extractor) extractGeneral(ctx context.Context, file File) (SourceUnit, error) {
	unit := newUnit(file)

	var (
		imports     []Import
		packageSeen bool
	)

	for idx, line := range splitLines(file.Content) {
		switch {
		case !packageSeen && IsPackageLine(line):
			pkg, err := ParsePackage(line)
			if err != nil {
				return SourceUnit{}, malformed(file.Path, idx, line, err)
			}

			unit.DeclaredPackage = pkg
			packageSeen = true
		case IsImportLine(line):
			imp, err := ParseImport(line)
			if err != nil {
				return SourceUnit{}, malformed(file.Path, idx, line, err)
			}

			imports = append(imports, imp)
		}
	}

	imported := strset.New()

	for _, imp := range imports {
		if pkg := imp.Package(); pkg != "" {
			imported.Add(pkg)
		}
	}

	unit.ImportedPackages = e.filter.Apply(imported)

	if file.Origin == OriginLibrary && e.surface != nil {
		unit.ExportedPackages = e.filter.Apply(e.inferExports(ctx, file, NewSymbolTable(imports)))
	}

	return unit, nil
}

// inferExports resolves the surface type names of every top-level declaration
// through the file's symbol table.
func (e *Extractor) inferExports(ctx context.Context, file File, symbols SymbolTable) strset.Set {
	exported := strset.New()

	if len(symbols) == 0 {
		return exported
	}

	decls, err := e.surface(ctx, file.Language, file.Content)
	if err != nil {
		e.warnSurface(ctx, &SurfaceInferenceError{Path: file.Path, Declaration: wholeFile, Err: err})

		return exported
	}

	for _, decl := range decls {
		membersFailed := decl.Err != nil
		if membersFailed {
			e.warnSurface(ctx, &SurfaceInferenceError{Path: file.Path, Declaration: decl.Name, Err: decl.Err})
		}

		for _, fact := range decl.Facts {
			if membersFailed && fact.Kind == FactMemberType {
				continue
			}

			if pkg, ok := symbols.Resolve(fact.Symbol); ok {
				exported.Add(pkg)
			}
		}
	}

	return exported
}

func (e *Extractor) warnSurface(ctx context.Context, err *SurfaceInferenceError) {
	if errors.Is(err.Err, context.Canceled) {
		return
	}

	e.logger.WarnContext(ctx, "surface inference degraded",
		"path", err.Path,
		"declaration", err.Declaration,
		"error", err.Err,
	)

	if e.onFail != nil {
		e.onFail(ctx, err)
	}
}

func newUnit(file File) SourceUnit {
	return SourceUnit{
		Path:             file.Path,
		Origin:           file.Origin,
		ImportedPackages: strset.New(),
		ExportedPackages: strset.New(),
	}
}

func malformed(path string, idx int, line string, err error) error {
	return &MalformedDeclarationError{Path: path, Line: idx + 1, Text: strings.TrimSpace(line), Err: err}
}

func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
