package reviews

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is wrapped by a ResourceError when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyDataset is returned when a labeled file holds no rows.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrNoModel is returned when prediction is attempted before a model is trained or loaded.
	ErrNoModel = errors.New("no model loaded")
	// ErrInvalidThresholds is returned when the positive cap does not exceed the neutral cap.
	ErrInvalidThresholds = errors.New("invalid probability thresholds")
	// ErrModelMismatch is returned when a model's input shape differs from the configured encoder.
	ErrModelMismatch = errors.New("model does not match configuration")
)

// ResourceError reports an unreadable or malformed input file.
type ResourceError struct {
	Path string
	Op   string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("resource %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a batch input whose extension is not recognised.
type UnsupportedFormatError struct {
	Path     string
	Ext      string
	Expected []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s (expected one of %s)",
		e.Ext, e.Path, strings.Join(e.Expected, ", "))
}

// ModelLoadError reports a checkpoint that could not be deserialized.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

func resourceErr(path, op string, err error) error {
	return &ResourceError{Path: path, Op: op, Err: err}
}
