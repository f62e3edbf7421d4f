// Package engine runs the dependency inference pipeline: parallel source
// extraction, per-module fold, ownership index, resolution and manifest
// patching.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depinfer/pkg/observability"
	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
	"github.com/Sumatoshi-tech/depinfer/pkg/textutil"
)

// Sentinel errors.
var (
	// ErrReadSource marks a source file that could not be read.
	ErrReadSource = errors.New("read source file")
	// ErrManifestsFailed is returned by Apply when at least one manifest
	// could not be updated.
	ErrManifestsFailed = errors.New("one or more manifests could not be updated")
	// ErrNoManifest marks a module analyzed without a manifest path.
	ErrNoManifest = errors.New("module has no manifest")
)

// Pipeline phase names used for spans and metrics.
const (
	PhaseExtract = "extract"
	PhaseFold    = "fold"
	PhaseResolve = "resolve"
	PhaseApply   = "apply"
)

const tracerName = "depinfer/engine"

// Engine holds the collaborators of one inference run. The zero value of
// every optional field is usable: Workers 0 means GOMAXPROCS, MaxFileSize 0
// means unlimited, and nil Logger, Tracer and Metrics are no-ops.
type Engine struct {
	Extractor   *sourcefact.Extractor
	Workers     int
	MaxFileSize int64
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Metrics     *observability.InferenceMetrics
}

// Analysis is the result of the read-only part of a run.
type Analysis struct {
	Modules      []*project.Module
	Dependencies []resolve.Dependencies
	// Manifests maps module id to the manifest file to patch.
	Manifests map[string]string
	// Ambiguous maps a package to its owners when more than one module declares it.
	Ambiguous map[string][]string
	Cycles    [][]string
	Files     int
	Skipped   []string
	Duration  time.Duration
}

// Edges returns the number of inferred edges of each kind.
func (a *Analysis) Edges() map[resolve.Kind]int {
	counts := make(map[resolve.Kind]int, len(resolve.Kinds))

	for _, deps := range a.Dependencies {
		for _, kind := range resolve.Kinds {
			counts[kind] += len(deps.Providers(kind))
		}
	}

	return counts
}

// Analyze extracts every listed file, folds modules and resolves their
// dependencies. A malformed declaration or unreadable file aborts the run.
func (e *Engine) Analyze(ctx context.Context, descriptors []project.Descriptor) (*Analysis, error) {
	start := time.Now()

	ctx, span := e.tracer().Start(ctx, "depinfer.analyze",
		trace.WithAttributes(attribute.Int("depinfer.modules", len(descriptors))))
	defer span.End()

	units, skipped, err := e.extract(ctx, descriptors)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")

		return nil, err
	}

	foldStart := time.Now()

	modules := make([]*project.Module, len(descriptors))
	manifests := make(map[string]string, len(descriptors))
	files := 0

	for idx, desc := range descriptors {
		modules[idx] = project.Fold(desc.ID, desc.RelativePath, units[idx]...)
		manifests[desc.ID] = desc.Manifest
		files += len(units[idx])
	}

	e.Metrics.RecordPhase(ctx, PhaseFold, time.Since(foldStart))

	analysis := e.resolve(ctx, modules)
	analysis.Manifests = manifests
	analysis.Files = files
	analysis.Skipped = skipped
	analysis.Duration = time.Since(start)

	span.SetAttributes(attribute.Int("depinfer.files", files))

	return analysis, nil
}

// AnalyzeFiles resolves modules built straight from source units, keyed by
// module id. The module's relative path is derived from its id.
func (e *Engine) AnalyzeFiles(ctx context.Context, units map[string][]sourcefact.SourceUnit) *Analysis {
	start := time.Now()

	modules := make([]*project.Module, 0, len(units))
	files := 0

	for id, moduleUnits := range units {
		modules = append(modules, project.Fold(id, relativePath(id), moduleUnits...))
		files += len(moduleUnits)
	}

	analysis := e.resolve(ctx, modules)
	analysis.Manifests = map[string]string{}
	analysis.Files = files
	analysis.Duration = time.Since(start)

	return analysis
}

func (e *Engine) resolve(ctx context.Context, modules []*project.Module) *Analysis {
	start := time.Now()

	_, span := e.tracer().Start(ctx, "depinfer.resolve")
	defer span.End()

	index := resolve.BuildIndex(modules)

	ambiguous := index.Ambiguous()
	for _, pkg := range index.Packages() {
		owners, ok := ambiguous[pkg]
		if !ok {
			continue
		}

		e.logger().WarnContext(ctx, "ambiguous package ownership",
			"package", pkg,
			"owners", owners,
		)
	}

	all := resolve.ResolveAll(index, modules)

	cycles := resolve.FindCycles(all)
	for _, cycle := range cycles {
		e.logger().WarnContext(ctx, "dependency cycle", "modules", cycle)
	}

	analysis := &Analysis{
		Modules:      sortedModules(modules),
		Dependencies: all,
		Ambiguous:    ambiguous,
		Cycles:       cycles,
	}

	edges := make(map[string]int, len(resolve.Kinds))
	for kind, count := range analysis.Edges() {
		edges[kind.Configuration()] = count
	}

	e.Metrics.RecordGraph(ctx, len(modules), len(ambiguous), len(cycles), edges)
	e.Metrics.RecordPhase(ctx, PhaseResolve, time.Since(start))

	span.SetAttributes(
		attribute.Int("depinfer.ambiguous_packages", len(ambiguous)),
		attribute.Int("depinfer.cycles", len(cycles)),
	)

	return analysis
}

// extract runs one extraction per file on a bounded worker pool. Results
// are grouped per descriptor; skipped holds oversized file paths.
func (e *Engine) extract(ctx context.Context, descriptors []project.Descriptor) ([][]sourcefact.SourceUnit, []string, error) {
	start := time.Now()

	ctx, span := e.tracer().Start(ctx, "depinfer.extract")
	defer span.End()

	type slot struct {
		unit    sourcefact.SourceUnit
		skipped bool
	}

	slots := make([][]slot, len(descriptors))
	for idx, desc := range descriptors {
		slots[idx] = make([]slot, len(desc.Files))
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers())

	for dIdx := range descriptors {
		for fIdx, file := range descriptors[dIdx].Files {
			group.Go(func() error {
				unit, ok, err := e.extractFile(gctx, file)
				if err != nil {
					return err
				}

				slots[dIdx][fIdx] = slot{unit: unit, skipped: !ok}

				return nil
			})
		}
	}

	waitErr := group.Wait()
	if waitErr != nil {
		return nil, nil, waitErr
	}

	units := make([][]sourcefact.SourceUnit, len(descriptors))

	var skipped []string

	for dIdx, moduleSlots := range slots {
		units[dIdx] = make([]sourcefact.SourceUnit, 0, len(moduleSlots))

		for fIdx, s := range moduleSlots {
			if s.skipped {
				skipped = append(skipped, descriptors[dIdx].Files[fIdx].Path)

				continue
			}

			units[dIdx] = append(units[dIdx], s.unit)
		}
	}

	e.Metrics.RecordPhase(ctx, PhaseExtract, time.Since(start))

	return units, skipped, nil
}

// extractFile reads and extracts one file. It returns false when the file
// exceeds the size limit.
func (e *Engine) extractFile(ctx context.Context, file project.SourceFile) (sourcefact.SourceUnit, bool, error) {
	info, statErr := os.Stat(file.Path)
	if statErr != nil {
		return sourcefact.SourceUnit{}, false, fmt.Errorf("%w: %w", ErrReadSource, statErr)
	}

	if e.MaxFileSize > 0 && info.Size() > e.MaxFileSize {
		e.logger().WarnContext(ctx, "skipping oversized source file",
			"path", file.Path,
			"size", info.Size(),
			"limit", e.MaxFileSize,
		)
		e.Metrics.RecordSkippedFile(ctx)

		return sourcefact.SourceUnit{}, false, nil
	}

	content, readErr := os.ReadFile(file.Path)
	if readErr != nil {
		return sourcefact.SourceUnit{}, false, fmt.Errorf("%w: %w", ErrReadSource, readErr)
	}

	if textutil.IsBinary(content) {
		e.logger().WarnContext(ctx, "skipping binary source file", "path", file.Path)
		e.Metrics.RecordSkippedFile(ctx)

		return sourcefact.SourceUnit{}, false, nil
	}

	unit, err := e.extractor().Extract(ctx, sourcefact.File{
		Path:     file.Path,
		Origin:   file.Origin,
		Language: file.Language,
		Content:  textutil.StripBOM(content),
	})
	if err != nil {
		return sourcefact.SourceUnit{}, false, err
	}

	e.Metrics.RecordFile(ctx, string(file.Language), file.Origin.String())

	return unit, true, nil
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}

	return runtime.GOMAXPROCS(0)
}

func (e *Engine) extractor() *sourcefact.Extractor {
	if e.Extractor != nil {
		return e.Extractor
	}

	return sourcefact.NewExtractor()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}

	return slog.New(slog.DiscardHandler)
}

func (e *Engine) tracer() trace.Tracer {
	if e.Tracer != nil {
		return e.Tracer
	}

	return noop.NewTracerProvider().Tracer(tracerName)
}

func sortedModules(modules []*project.Module) []*project.Module {
	sorted := slices.Clone(modules)
	slices.SortFunc(sorted, func(a, b *project.Module) int {
		return strings.Compare(a.ID, b.ID)
	})

	return sorted
}

// relativePath turns ":a:b" back into "a/b"; the root module maps to "".
func relativePath(id string) string {
	return strings.ReplaceAll(strings.TrimPrefix(id, ":"), ":", "/")
}
