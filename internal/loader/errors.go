package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat indicates the filename does not match any loader.
	ErrUnsupportedFormat = errors.New("unsupported tabular format")
	// ErrEmpty indicates there is nothing to load.
	ErrEmpty = errors.New("empty input")
)

// LoadError reports an upload that could not be parsed. It halts the pipeline
// for the current interaction; Message is meant for the user.
type LoadError struct {
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("load: %s", e.Message)
	}
	return fmt.Sprintf("load %s: %s", e.File, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

func wrapLoadError(file string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		if le.File == "" {
			le.File = file
		}
		return le
	}
	return &LoadError{File: file, Message: err.Error(), Err: err}
}
