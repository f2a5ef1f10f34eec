package input

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the input path does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrUnsupportedInput indicates a file that is neither .json nor .zip.
	ErrUnsupportedInput = errors.New("unsupported input type")

	// ErrMissingFile indicates a required member (conversations.json) is absent.
	ErrMissingFile = errors.New("required file missing")

	// ErrParse indicates a payload that could not be read or parsed as JSON.
	ErrParse = errors.New("parse error")
)

// Error is the fatal input error. Kind is one of the sentinel errors above.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Path)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}
