package sourcefact

import (
	"errors"
	"fmt"
)

// Sentinel errors for extraction.
var (
	// ErrMalformedDeclaration marks a package, import or option line that does not
	// match any recognized shape.
	ErrMalformedDeclaration = errors.New("malformed declaration")
	// ErrSurfaceInference marks a declaration whose member types could not be read.
	ErrSurfaceInference = errors.New("surface inference failed")
)

// MalformedDeclarationError reports the offending line of a file.
type MalformedDeclarationError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedDeclarationError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q: %v", e.Path, e.Line, ErrMalformedDeclaration, e.Text, e.Err)
}

// Unwrap returns both the sentinel and the underlying grammar error.
func (e *MalformedDeclarationError) Unwrap() []error {
	return []error{ErrMalformedDeclaration, e.Err}
}

// SurfaceInferenceError names the declaration whose members were dropped.
type SurfaceInferenceError struct {
	Path        string
	Declaration string
	Err         error
}

func (e *SurfaceInferenceError) Error() string {
	return fmt.Sprintf("%s: %v for %s: %v", e.Path, ErrSurfaceInference, e.Declaration, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *SurfaceInferenceError) Unwrap() []error {
	return []error{ErrSurfaceInference, e.Err}
}
