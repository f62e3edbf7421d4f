package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
)

// ErrManifestWrite marks a manifest whose read-modify-write did not complete.
var ErrManifestWrite = errors.New("manifest write failed")

// WriteError reports a failed manifest update. The manifest on disk is left
// as it was before the attempt.
type WriteError struct {
	Module string
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Module, e.Path, e.Err)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrManifestWrite, e.Err}
}

// Change describes the effect of patching one manifest.
type Change struct {
	Module  string `json:"module"         yaml:"module"`
	Path    string `json:"path"           yaml:"path"`
	Changed bool   `json:"changed"        yaml:"changed"`
	Written bool   `json:"written"        yaml:"written"`
	Diff    string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Patcher applies generated blocks to manifest files.
type Patcher struct {
	// DryRun computes changes and diffs without touching any file.
	DryRun bool
}

// Apply patches the manifest at path with deps. Unchanged content is never
// rewritten. The new content replaces the file atomically through a
// temporary file in the same directory, keeping the original permissions.
func (p Patcher) Apply(deps resolve.Dependencies, path string) (Change, error) {
	change := Change{Module: deps.Module, Path: path}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return change, &WriteError{Module: deps.Module, Path: path, Err: statErr}
	}

	before, readErr := os.ReadFile(path)
	if readErr != nil {
		return change, &WriteError{Module: deps.Module, Path: path, Err: readErr}
	}

	after := DetectStyle(before).Join(Patch(SplitLines(before), deps))
	if bytes.Equal(before, after) {
		return change, nil
	}

	change.Changed = true
	change.Diff = Diff(path, before, after)

	if p.DryRun {
		return change, nil
	}

	writeErr := writeAtomic(path, after, info.Mode().Perm())
	if writeErr != nil {
		return change, &WriteError{Module: deps.Module, Path: path, Err: writeErr}
	}

	change.Written = true

	return change, nil
}

// writeAtomic replaces the file behind path; a symlinked manifest keeps its
// link and the target is replaced.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	target, evalErr := filepath.EvalSymlinks(path)
	if evalErr != nil {
		return fmt.Errorf("resolve manifest: %w", evalErr)
	}

	fd, createErr := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if createErr != nil {
		return fmt.Errorf("create temp: %w", createErr)
	}

	tmpPath := fd.Name()

	defer func() {
		if err != nil {
			fd.Close()
			os.Remove(tmpPath)
		}
	}()

	_, writeErr := fd.Write(data)
	if writeErr != nil {
		return fmt.Errorf("write temp: %w", writeErr)
	}

	chmodErr := fd.Chmod(perm)
	if chmodErr != nil {
		return fmt.Errorf("chmod temp: %w", chmodErr)
	}

	syncErr := fd.Sync()
	if syncErr != nil {
		return fmt.Errorf("sync temp: %w", syncErr)
	}

	closeErr := fd.Close()
	if closeErr != nil {
		return fmt.Errorf("close temp: %w", closeErr)
	}

	renameErr := os.Rename(tmpPath, target)
	if renameErr != nil {
		return fmt.Errorf("rename temp: %w", renameErr)
	}

	return nil
}
