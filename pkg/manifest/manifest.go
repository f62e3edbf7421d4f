// Package manifest rewrites the generated dependency block of a Gradle build
// file. Everything before the block marker is preserved; the block and
// anything after it is replaced.
package manifest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

const (
	// Marker opens the generated block.
	Marker = "dependencies { // GENERATED"
	// Closing ends the generated block.
	Closing = "}"
)

// Render returns the generated block for deps: the marker, one line per api,
// implementation and test edge in that order, and the closing line.
func Render(deps resolve.Dependencies) []string {
	lines := make([]string, 0, deps.Len()+2)
	lines = append(lines, Marker)

	for _, edge := range deps.Edges() {
		lines = append(lines, fmt.Sprintf("  %s project(%q)", edge.Kind.Configuration(), edge.Provider))
	}

	return append(lines, Closing)
}

// Patch returns lines truncated before the first marker line, if any, with
// the rendered block appended. Patching its own output yields the same lines.
func Patch(lines []string, deps resolve.Dependencies) []string {
	kept := lines

	for idx, line := range lines {
		if line == Marker {
			kept = lines[:idx]

			break
		}
	}

	patched := make([]string, 0, len(kept)+deps.Len()+2)
	patched = append(patched, kept...)

	return append(patched, Render(deps)...)
}

// SplitLines splits file content into lines. Both "\n" and "\r\n" end a
// line, and a final line terminator does not start an empty line.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}

	text := strings.TrimSuffix(string(content), "\n")
	lines := strings.Split(text, "\n")

	for idx, line := range lines {
		lines[idx] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// JoinLines terminates every line with "\n".
func JoinLines(lines []string) []byte {
	return Style{Newline: "\n", FinalNewline: true}.Join(lines)
}

// Style is the line terminator convention of a file.
type Style struct {
	Newline      string
	FinalNewline bool
}

// DetectStyle reads the convention of content from its first line ending
// and its last byte. Empty content gets "\n" with a final newline.
func DetectStyle(content []byte) Style {
	style := Style{Newline: "\n", FinalNewline: true}
	if len(content) == 0 {
		return style
	}

	if idx := bytes.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		style.Newline = "\r\n"
	}

	style.FinalNewline = content[len(content)-1] == '\n'

	return style
}

// Join separates lines with the style's newline and ends the last one with
// it only when the style has a final newline.
func (s Style) Join(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}

	joined := strings.Join(lines, s.Newline)
	if s.FinalNewline {
		joined += s.Newline
	}

	return []byte(joined)
}
