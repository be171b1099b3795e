package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for load failures.
const (
	ErrCodeLoadFailed    = "E004" // file unreadable or undecodable
	ErrCodeNotFound      = "E005" // file does not exist
	ErrCodeBuildFailed   = "E006" // CUE evaluation failed
	ErrCodeUnsupported   = "E008" // unknown file type
	ErrCodeInvalidConfig = "E009" // document structure is wrong
	ErrCodeImportCycle   = "E010" // file imports itself
	ErrCodeNoExtension   = "E011" // unknown configuration namespace
)

// LoadError reports a file that could not be loaded into a builder.
type LoadError struct {
	Code    string
	File    string
	Message string

	// Pos is set for CUE files when the failing value has a position.
	Pos token.Pos

	Err error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrorCode returns the stable code of the failure.
func (e *LoadError) ErrorCode() string { return e.Code }

// IsLoadError reports whether err is a LoadError with code. An empty code
// matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}

func invalidConfig(file, format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeInvalidConfig, File: file, Message: fmt.Sprintf(format, args...)}
}

// formatCUEError converts a CUE error into a LoadError positioned at its
// first error.
func formatCUEError(file, code string, err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, File: file, Message: err.Error(), Err: err}
	}

	first := errs[0]
	le := &LoadError{Code: code, File: file, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
