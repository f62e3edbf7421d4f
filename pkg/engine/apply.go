package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depinfer/pkg/manifest"
	"github.com/Sumatoshi-tech/depinfer/pkg/observability"
)

// Outcome lists what Apply did per module.
type Outcome struct {
	// Changes holds one entry per module whose manifest was processed, sorted by module.
	Changes []manifest.Change
	// Failed maps module id to the error that stopped its manifest update.
	Failed map[string]error
}

// Drifted returns the changes whose manifest content differs from the
// generated one.
func (o Outcome) Drifted() []manifest.Change {
	var drifted []manifest.Change

	for _, change := range o.Changes {
		if change.Changed {
			drifted = append(drifted, change)
		}
	}

	return drifted
}

// FailedModules returns the ids of failed modules in ascending order.
func (o Outcome) FailedModules() []string {
	ids := make([]string, 0, len(o.Failed))
	for id := range o.Failed {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Apply patches every analyzed module's manifest. Each module is handled
// independently; a failed module never prevents the others from being
// written. ErrManifestsFailed is returned when any module failed.
func (e *Engine) Apply(ctx context.Context, analysis *Analysis, patcher manifest.Patcher) (Outcome, error) {
	start := time.Now()

	ctx, span := e.tracer().Start(ctx, "depinfer.apply",
		trace.WithAttributes(attribute.Bool("depinfer.dry_run", patcher.DryRun)))
	defer span.End()

	changes := make([]manifest.Change, len(analysis.Dependencies))
	failures := make([]error, len(analysis.Dependencies))

	var group errgroup.Group

	group.SetLimit(e.workers())

	for idx, deps := range analysis.Dependencies {
		group.Go(func() error {
			path, ok := analysis.Manifests[deps.Module]
			if !ok || path == "" {
				failures[idx] = fmt.Errorf("%s: %w", deps.Module, ErrNoManifest)

				return nil
			}

			change, err := patcher.Apply(deps, path)
			changes[idx] = change
			failures[idx] = err

			return nil
		})
	}

	// Workers never return errors; failures are collected per module.
	_ = group.Wait()

	outcome := Outcome{Failed: map[string]error{}}

	for idx, deps := range analysis.Dependencies {
		if failures[idx] != nil {
			outcome.Failed[deps.Module] = failures[idx]
			e.Metrics.RecordManifest(ctx, observability.StatusFailed)
			e.logger().ErrorContext(ctx, "manifest update failed",
				"module", deps.Module,
				"error", failures[idx],
			)

			continue
		}

		change := changes[idx]
		outcome.Changes = append(outcome.Changes, change)
		e.recordChange(ctx, change, patcher.DryRun)
	}

	e.Metrics.RecordPhase(ctx, PhaseApply, time.Since(start))

	span.SetAttributes(
		attribute.Int("depinfer.manifests.changed", len(outcome.Drifted())),
		attribute.Int("depinfer.manifests.failed", len(outcome.Failed)),
	)

	if len(outcome.Failed) > 0 {
		span.SetStatus(codes.Error, "manifest updates failed")

		return outcome, fmt.Errorf("%w: %d of %d modules", ErrManifestsFailed,
			len(outcome.Failed), len(analysis.Dependencies))
	}

	return outcome, nil
}

func (e *Engine) recordChange(ctx context.Context, change manifest.Change, dryRun bool) {
	switch {
	case !change.Changed:
		e.Metrics.RecordManifest(ctx, observability.StatusUnchanged)
		e.logger().DebugContext(ctx, "manifest unchanged", "module", change.Module)
	case dryRun:
		e.Metrics.RecordManifest(ctx, observability.StatusDrift)
		e.logger().InfoContext(ctx, "manifest out of date", "module", change.Module, "path", change.Path)
	default:
		e.Metrics.RecordManifest(ctx, observability.StatusWritten)
		e.logger().InfoContext(ctx, "manifest written", "module", change.Module, "path", change.Path)
	}
}
