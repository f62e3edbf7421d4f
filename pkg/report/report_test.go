package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depinfer/pkg/engine"
	"github.com/Sumatoshi-tech/depinfer/pkg/manifest"
	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/report"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

var errDiskFull = errors.New("no space left on device")

func sampleAnalysis() *engine.Analysis {
	return &engine.Analysis{
		Modules: []*project.Module{
			project.NewModule(":app", "app"),
			project.NewModule(":base", "base"),
			project.NewModule(":lib", "lib"),
		},
		Dependencies: []resolve.Dependencies{
			{Module: ":app", Implementation: []string{":lib"}, Test: []string{":base"}},
			{Module: ":base"},
			{Module: ":lib", API: []string{":base"}, Implementation: []string{":base"}},
		},
		Ambiguous: map[string][]string{"com.x.shared": {":base", ":lib"}},
		Cycles:    [][]string{{":a", ":b"}},
		Files:     1234,
		Duration:  1500 * time.Millisecond,
	}
}

func sampleOutcome() *engine.Outcome {
	return &engine.Outcome{
		Changes: []manifest.Change{
			{Module: ":base", Path: "base/build.gradle"},
			{Module: ":lib", Path: "lib/build.gradle", Changed: true, Written: true},
		},
		Failed: map[string]error{":app": errDiskFull},
	}
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	summary := report.NewSummary("/tree", sampleAnalysis(), sampleOutcome())

	assert.Equal(t, 3, summary.Modules)
	assert.Equal(t, map[string]int{"api": 1, "implementation": 2, "testImplementation": 1}, summary.Edges)
	assert.Equal(t, 4, summary.EdgeCount())
	assert.Equal(t, int64(1500), summary.DurationMS)
	assert.Equal(t, []string{":base", ":lib", ":app"}, summary.BuildOrder)

	require.Len(t, summary.Manifests, 3)
	assert.Equal(t, "failed", summary.Status(":app").Status)
	assert.Equal(t, errDiskFull.Error(), summary.Status(":app").Error)
	assert.Equal(t, "unchanged", summary.Status(":base").Status)
	assert.Equal(t, "written", summary.Status(":lib").Status)
	assert.Empty(t, summary.Status(":missing").Status)
}

func TestNewSummary_DriftWithoutWrite(t *testing.T) {
	t.Parallel()

	outcome := &engine.Outcome{Changes: []manifest.Change{{Module: ":lib", Changed: true}}}

	summary := report.NewSummary("/tree", sampleAnalysis(), outcome)

	assert.Equal(t, "drift", summary.Status(":lib").Status)
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteText(&buf, report.NewSummary("/tree", sampleAnalysis(), sampleOutcome()), true))

	out := buf.String()
	assert.Contains(t, out, "testImplementation")
	assert.Contains(t, out, ":lib")
	assert.Contains(t, out, "written")
	assert.Contains(t, out, "warning: ambiguous package com.x.shared owned by :base, :lib")
	assert.Contains(t, out, "warning: dependency cycle: :a -> :b")
	assert.Contains(t, out, "failed: :app: no space left on device")
	assert.Contains(t, out, "3 modules, 1,234 files, 4 edges in 1.5 s")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteText_WithoutOutcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteText(&buf, report.NewSummary("/tree", sampleAnalysis(), nil), true))

	assert.NotContains(t, buf.String(), "Manifest")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteJSON(&buf, report.NewSummary("/tree", sampleAnalysis(), nil)))

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/tree", decoded["root"])
	assert.InDelta(t, 1500, decoded["duration_ms"], 0)
	assert.NotContains(t, decoded, "manifests")

	deps, ok := decoded["dependencies"].([]any)
	require.True(t, ok)
	assert.Len(t, deps, 3)
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteYAML(&buf, report.NewSummary("/tree", sampleAnalysis(), sampleOutcome())))

	var decoded struct {
		Modules   int `yaml:"modules"`
		Manifests []struct {
			Module string `yaml:"module"`
			Status string `yaml:"status"`
		} `yaml:"manifests"`
	}

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.Modules)
	require.Len(t, decoded.Manifests, 3)
	assert.Equal(t, ":app", decoded.Manifests[0].Module)
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.Write(&bytes.Buffer{}, "xml", report.Summary{}, true)
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestWriteGraph(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteGraph(&buf, sampleAnalysis().Dependencies))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Module dependencies")
	assert.Contains(t, html, `":lib"`)
	assert.Contains(t, html, "dashed")
	assert.Contains(t, html, "dotted")
}

func TestJSONSchema_ValidatesReport(t *testing.T) {
	t.Parallel()

	for _, outcome := range []*engine.Outcome{nil, sampleOutcome()} {
		var buf bytes.Buffer

		require.NoError(t, report.WriteJSON(&buf, report.NewSummary("/tree", sampleAnalysis(), outcome)))

		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(report.JSONSchema()),
			gojsonschema.NewBytesLoader(buf.Bytes()),
		)
		require.NoError(t, err)
		assert.True(t, result.Valid(), "%v", result.Errors())
	}
}

func TestJSONSchema_Shape(t *testing.T) {
	t.Parallel()

	schema := report.JSONSchema()

	assert.Contains(t, schema.Required, "dependencies")
	assert.NotContains(t, schema.Required, "manifests")
	assert.NotContains(t, schema.Properties, "Duration")
	require.Contains(t, schema.Definitions, "Dependencies")
	assert.ElementsMatch(t, []string{"module", "api", "implementation", "test"},
		schema.Definitions["Dependencies"].Required)
}
