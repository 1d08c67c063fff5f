package artifacts

import (
	"errors"
	"fmt"
)

// Sentinel errors - Lookup
var (
	ErrArtifactNotFound  = errors.New("artifacts: artifact not found")
	ErrAmbiguousArtifact = errors.New("artifacts: multiple artifacts match")
	ErrMalformedArtifact = errors.New("artifacts: malformed artifact")
)

// Sentinel errors - Deployability
var (
	ErrEmptyBytecode     = errors.New("artifacts: empty creation bytecode")
	ErrUnlinkedLibraries = errors.New("artifacts: bytecode has unlinked libraries")
)

// LookupError wraps a lookup failure with the requested contract name.
type LookupError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup artifact %q: %v", e.Name, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *LookupError) Unwrap() error {
	return e.Err
}

func wrapLookupError(name string, err error) error {
	if err == nil {
		return nil
	}
	return &LookupError{Name: name, Err: err}
}
