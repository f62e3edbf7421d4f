package manifest_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depinfer/pkg/manifest"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

var appDeps = resolve.Dependencies{
	Module:         ":app",
	API:            []string{":model"},
	Implementation: []string{":lib", ":services:foo"},
	Test:           []string{":fixtures"},
}

func TestRender(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"dependencies { // GENERATED",
		`  api project(":model")`,
		`  implementation project(":lib")`,
		`  implementation project(":services:foo")`,
		`  testImplementation project(":fixtures")`,
		"}",
	}, manifest.Render(appDeps))

	assert.Equal(t, []string{manifest.Marker, manifest.Closing}, manifest.Render(resolve.Dependencies{Module: ":empty"}))
}

func TestPatch_AppendsWithoutMarker(t *testing.T) {
	t.Parallel()

	lines := []string{"plugins { id 'java' }", ""}
	patched := manifest.Patch(lines, resolve.Dependencies{Module: ":a", Implementation: []string{":b"}})

	assert.Equal(t, []string{
		"plugins { id 'java' }",
		"",
		manifest.Marker,
		`  implementation project(":b")`,
		manifest.Closing,
	}, patched)
	assert.Len(t, lines, 2, "input is not modified")
}

func TestPatch_ReplacesGeneratedBlock(t *testing.T) {
	t.Parallel()

	lines := []string{
		"plugins { id 'java' }",
		manifest.Marker,
		`  implementation project(":stale")`,
		manifest.Closing,
		"// trailing content is owned by the block",
	}

	patched := manifest.Patch(lines, resolve.Dependencies{Module: ":a", Test: []string{":t"}})
	assert.Equal(t, []string{
		"plugins { id 'java' }",
		manifest.Marker,
		`  testImplementation project(":t")`,
		manifest.Closing,
	}, patched)
}

func TestPatch_MarkerOnFirstLine(t *testing.T) {
	t.Parallel()

	lines := []string{manifest.Marker, `  api project(":old")`, manifest.Closing}

	patched := manifest.Patch(lines, resolve.Dependencies{Module: ":a", API: []string{":new"}})
	assert.Equal(t, []string{manifest.Marker, `  api project(":new")`, manifest.Closing}, patched)
}

func TestPatch_Idempotent(t *testing.T) {
	t.Parallel()

	lines := []string{"apply plugin: 'java'", "", "dependencies {", "  implementation 'org:lib:1'", "}"}

	once := manifest.Patch(lines, appDeps)
	twice := manifest.Patch(once, appDeps)
	assert.Equal(t, once, twice)
}

func TestPatch_MarkerMustMatchExactly(t *testing.T) {
	t.Parallel()

	lines := []string{"  dependencies { // GENERATED"}

	patched := manifest.Patch(lines, resolve.Dependencies{Module: ":a"})
	assert.Equal(t, []string{"  dependencies { // GENERATED", manifest.Marker, manifest.Closing}, patched)
}

func TestSplitJoinLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, manifest.SplitLines(nil))
	assert.Equal(t, []string{"a", "b"}, manifest.SplitLines([]byte("a\r\nb\r\n")))
	assert.Equal(t, []string{"a", "", "b"}, manifest.SplitLines([]byte("a\n\nb")))
	assert.Equal(t, []byte("a\nb\n"), manifest.JoinLines([]string{"a", "b"}))
}

func TestDetectStyle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, manifest.Style{Newline: "\n", FinalNewline: true}, manifest.DetectStyle(nil))
	assert.Equal(t, manifest.Style{Newline: "\r\n", FinalNewline: true}, manifest.DetectStyle([]byte("a\r\nb\r\n")))
	assert.Equal(t, manifest.Style{Newline: "\n", FinalNewline: false}, manifest.DetectStyle([]byte("a\nb")))
	assert.Equal(t, manifest.Style{Newline: "\n", FinalNewline: false}, manifest.DetectStyle([]byte("single")))

	assert.Equal(t, []byte("a\r\nb"), manifest.Style{Newline: "\r\n"}.Join([]string{"a", "b"}))
}

func TestPatcher_KeepsLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		before string
		want   string
	}{
		{
			name:   "crlf",
			before: "plugins {\r\n}\r\n",
			want:   "plugins {\r\n}\r\ndependencies { // GENERATED\r\n  api project(\":base\")\r\n}\r\n",
		},
		{
			name:   "no_final_newline",
			before: "plugins {\n}",
			want:   "plugins {\n}\ndependencies { // GENERATED\n  api project(\":base\")\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "build.gradle")
			require.NoError(t, os.WriteFile(path, []byte(tt.before), 0o644))

			deps := resolve.Dependencies{Module: ":lib", API: []string{":base"}}

			_, err := manifest.Patcher{}.Apply(deps, path)
			require.NoError(t, err)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(content))

			change, err := manifest.Patcher{}.Apply(deps, path)
			require.NoError(t, err)
			assert.False(t, change.Changed)
		})
	}
}

func TestPatcher_SymlinkedManifestKeepsLink(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "shared.gradle")
	link := filepath.Join(dir, "build.gradle")

	require.NoError(t, os.WriteFile(target, []byte("plugins {\n}\n"), 0o644))
	require.NoError(t, os.Symlink("shared.gradle", link))

	_, err := manifest.Patcher{}.Apply(resolve.Dependencies{Module: ":lib"}, link)
	require.NoError(t, err)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "plugins {\n}\ndependencies { // GENERATED\n}\n", string(content))
}

func TestDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, manifest.Diff("build.gradle", []byte("a\n"), []byte("a\n")))

	diff := manifest.Diff("build.gradle",
		[]byte("one\ntwo\nthree\nfour\nfive\nold\n"),
		[]byte("one\ntwo\nthree\nfour\nfive\nnew\n"))

	assert.Contains(t, diff, "--- build.gradle\n+++ build.gradle\n")
	assert.Contains(t, diff, "-old\n+new\n")
	assert.Contains(t, diff, " four\n five\n")
	assert.NotContains(t, diff, " one\n")
}

func writeManifest(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))

	return path
}

func TestPatcher_Apply(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "plugins { id 'java' }\n", 0o640)

	change, err := manifest.Patcher{}.Apply(appDeps, path)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.True(t, change.Written)
	assert.Contains(t, change.Diff, `+  implementation project(":lib")`)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plugins { id 'java' }\n"+
		"dependencies { // GENERATED\n"+
		"  api project(\":model\")\n"+
		"  implementation project(\":lib\")\n"+
		"  implementation project(\":services:foo\")\n"+
		"  testImplementation project(\":fixtures\")\n"+
		"}\n", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")

	again, err := manifest.Patcher{}.Apply(appDeps, path)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.False(t, again.Written)
	assert.Empty(t, again.Diff)
}

func TestPatcher_DryRun(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "plugins {}\n", 0o600)

	change, err := manifest.Patcher{DryRun: true}.Apply(appDeps, path)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.False(t, change.Written)
	assert.NotEmpty(t, change.Diff)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plugins {}\n", string(content))
}

func TestPatcher_MissingManifest(t *testing.T) {
	t.Parallel()

	_, err := manifest.Patcher{}.Apply(appDeps, filepath.Join(t.TempDir(), "build.gradle"))
	require.ErrorIs(t, err, manifest.ErrManifestWrite)

	var writeErr *manifest.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, ":app", writeErr.Module)
}

func TestPatcher_ReadOnlyDirectoryKeepsOriginal(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}

	path := writeManifest(t, "plugins {}\n", 0o600)
	dir := filepath.Dir(path)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err := manifest.Patcher{}.Apply(appDeps, path)
	require.ErrorIs(t, err, manifest.ErrManifestWrite)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plugins {}\n", string(content))
}
