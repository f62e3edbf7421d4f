package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal        = "depinfer.files.total"
	metricFilesSkipped      = "depinfer.files.skipped.total"
	metricSurfaceFailures   = "depinfer.surface.failures.total"
	metricModulesTotal      = "depinfer.modules.total"
	metricEdgesTotal        = "depinfer.edges.total"
	metricAmbiguousPackages = "depinfer.packages.ambiguous.total"
	metricCyclesTotal       = "depinfer.cycles.total"
	metricManifestsTotal    = "depinfer.manifests.total"
	metricPhaseDuration     = "depinfer.phase.duration.seconds"

	attrLanguage = "language"
	attrOrigin   = "origin"
	attrKind     = "kind"
	attrStatus   = "status"
	attrPhase    = "phase"

	// StatusWritten marks a manifest that was rewritten.
	StatusWritten = "written"
	// StatusUnchanged marks a manifest already up to date.
	StatusUnchanged = "unchanged"
	// StatusDrift marks a manifest that a dry run would change.
	StatusDrift = "drift"
	// StatusFailed marks a manifest whose update failed.
	StatusFailed = "failed"
)

// durationBucketBoundaries covers 1ms to 300s, from tiny trees to large monorepos.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// InferenceMetrics holds the OTel instruments of a dependency inference run.
// All methods are safe to call on a nil receiver (no-op).
type InferenceMetrics struct {
	files             metric.Int64Counter
	filesSkipped      metric.Int64Counter
	surfaceFailures   metric.Int64Counter
	modules           metric.Int64Counter
	edges             metric.Int64Counter
	ambiguousPackages metric.Int64Counter
	cycles            metric.Int64Counter
	manifests         metric.Int64Counter
	phaseDuration     metric.Float64Histogram
}

// NewInferenceMetrics creates inference metric instruments from the given meter.
func NewInferenceMetrics(mt metric.Meter) (*InferenceMetrics, error) {
	im := &InferenceMetrics{}

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
		unit   string
	}{
		{&im.files, metricFilesTotal, "Source files extracted", "{file}"},
		{&im.filesSkipped, metricFilesSkipped, "Source files skipped as oversized or binary", "{file}"},
		{&im.surfaceFailures, metricSurfaceFailures, "Recovered surface inference failures", "{failure}"},
		{&im.modules, metricModulesTotal, "Modules analyzed", "{module}"},
		{&im.edges, metricEdgesTotal, "Dependency edges inferred by kind", "{edge}"},
		{&im.ambiguousPackages, metricAmbiguousPackages, "Packages declared by more than one module", "{package}"},
		{&im.cycles, metricCyclesTotal, "Module dependency cycles", "{cycle}"},
		{&im.manifests, metricManifestsTotal, "Manifests processed by status", "{manifest}"},
	}

	for _, c := range counters {
		counter, err := mt.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}

		*c.target = counter
	}

	phaseDur, err := mt.Float64Histogram(metricPhaseDuration,
		metric.WithDescription("Pipeline phase duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPhaseDuration, err)
	}

	im.phaseDuration = phaseDur

	return im, nil
}

// RecordFile counts one extracted file.
func (im *InferenceMetrics) RecordFile(ctx context.Context, language, origin string) {
	if im == nil {
		return
	}

	im.files.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrLanguage, language),
		attribute.String(attrOrigin, origin),
	))
}

// RecordSkippedFile counts one file skipped as oversized or binary.
func (im *InferenceMetrics) RecordSkippedFile(ctx context.Context) {
	if im == nil {
		return
	}

	im.filesSkipped.Add(ctx, 1)
}

// RecordSurfaceFailure counts one recovered surface inference failure.
func (im *InferenceMetrics) RecordSurfaceFailure(ctx context.Context) {
	if im == nil {
		return
	}

	im.surfaceFailures.Add(ctx, 1)
}

// RecordGraph records the shape of a resolved module graph.
func (im *InferenceMetrics) RecordGraph(ctx context.Context, modules, ambiguous, cycles int, edgesByKind map[string]int) {
	if im == nil {
		return
	}

	im.modules.Add(ctx, int64(modules))
	im.ambiguousPackages.Add(ctx, int64(ambiguous))
	im.cycles.Add(ctx, int64(cycles))

	for kind, count := range edgesByKind {
		im.edges.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrKind, kind)))
	}
}

// RecordManifest counts one processed manifest with its status.
func (im *InferenceMetrics) RecordManifest(ctx context.Context, status string) {
	if im == nil {
		return
	}

	im.manifests.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordPhase records the duration of a pipeline phase.
func (im *InferenceMetrics) RecordPhase(ctx context.Context, phase string, duration time.Duration) {
	if im == nil {
		return
	}

	im.phaseDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrPhase, phase)))
}
