package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depinfer/pkg/observability"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Write renders summary in the given format.
func Write(w io.Writer, format string, summary Summary, noColor bool) error {
	switch format {
	case FormatText:
		return WriteText(w, summary, noColor)
	case FormatJSON:
		return WriteJSON(w, summary)
	case FormatYAML:
		return WriteYAML(w, summary)
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// WriteJSON writes summary as indented JSON.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(summary)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML writes summary as YAML.
func WriteYAML(w io.Writer, summary Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(summary)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	closeErr := enc.Close()
	if closeErr != nil {
		return fmt.Errorf("encode yaml: %w", closeErr)
	}

	return nil
}

// WriteText writes a per-module table followed by warnings and totals.
func WriteText(w io.Writer, summary Summary, noColor bool) error {
	palette := newPalette(noColor)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Header = text.FormatDefault

	header := table.Row{"Module"}
	for _, kind := range resolve.Kinds {
		header = append(header, kind.Configuration())
	}

	if len(summary.Manifests) > 0 {
		header = append(header, "Manifest")
	}

	tbl.AppendHeader(header)

	for _, deps := range summary.Dependencies {
		row := table.Row{deps.Module}
		for _, kind := range resolve.Kinds {
			row = append(row, joinOrDash(deps.Providers(kind)))
		}

		if len(summary.Manifests) > 0 {
			row = append(row, palette.status(summary.Status(deps.Module).Status))
		}

		tbl.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	var lines []string

	for _, pkg := range sortedKeys(summary.Ambiguous) {
		lines = append(lines, palette.warn(fmt.Sprintf("ambiguous package %s owned by %s",
			pkg, strings.Join(summary.Ambiguous[pkg], ", "))))
	}

	for _, cycle := range summary.Cycles {
		lines = append(lines, palette.warn("dependency cycle: "+strings.Join(cycle, " -> ")))
	}

	for _, status := range summary.Manifests {
		if status.Error != "" {
			lines = append(lines, palette.fail(fmt.Sprintf("%s: %s", status.Module, status.Error)))
		}
	}

	lines = append(lines, fmt.Sprintf("%s modules, %s files, %s edges in %s",
		humanize.Comma(int64(summary.Modules)),
		humanize.Comma(int64(summary.Files)),
		humanize.Comma(int64(summary.EdgeCount())),
		humanize.SIWithDigits(summary.Duration.Seconds(), 1, "s"),
	))

	if len(summary.Skipped) > 0 {
		lines = append(lines, fmt.Sprintf("%d oversized files skipped", len(summary.Skipped)))
	}

	_, err = fmt.Fprintln(w, "\n"+strings.Join(lines, "\n"))
	if err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}

type palette struct {
	written, unchanged, drift, failed *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		written:   color.New(color.FgGreen),
		unchanged: color.New(color.Faint),
		drift:     color.New(color.FgYellow),
		failed:    color.New(color.FgRed),
	}

	if noColor {
		for _, c := range []*color.Color{p.written, p.unchanged, p.drift, p.failed} {
			c.DisableColor()
		}
	}

	return p
}

func (p palette) status(status string) string {
	switch status {
	case observability.StatusWritten:
		return p.written.Sprint(status)
	case observability.StatusUnchanged:
		return p.unchanged.Sprint(status)
	case observability.StatusDrift:
		return p.drift.Sprint(status)
	case observability.StatusFailed:
		return p.failed.Sprint(status)
	default:
		return "-"
	}
}

func (p palette) warn(msg string) string {
	return p.drift.Sprint("warning: ") + msg
}

func (p palette) fail(msg string) string {
	return p.failed.Sprint("failed: ") + msg
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}

	return strings.Join(ids, " ")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
