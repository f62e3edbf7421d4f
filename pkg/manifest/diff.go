package manifest

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 2

// Diff renders a line diff between two versions of a manifest. Unchanged
// runs longer than the surrounding context are collapsed into a "@@" line.
// It returns "" when both versions are equal.
func Diff(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	var out strings.Builder

	out.WriteString("--- " + path + "\n")
	out.WriteString("+++ " + path + "\n")

	for idx, diff := range diffs {
		chunk := SplitLines([]byte(diff.Text))

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&out, "-", chunk)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&out, "+", chunk)
		case diffmatchpatch.DiffEqual:
			writeContext(&out, chunk, idx == 0, idx == len(diffs)-1)
		}
	}

	return out.String()
}

func writeContext(out *strings.Builder, chunk []string, first, last bool) {
	head, tail := diffContext, diffContext
	if first {
		head = 0
	}

	if last {
		tail = 0
	}

	if len(chunk) <= head+tail {
		writePrefixed(out, " ", chunk)

		return
	}

	writePrefixed(out, " ", chunk[:head])
	out.WriteString("@@\n")
	writePrefixed(out, " ", chunk[len(chunk)-tail:])
}

func writePrefixed(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix + line + "\n")
	}
}
