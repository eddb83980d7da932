package vfs

import "errors"

// Sentinel errors returned (wrapped in *Error) by resolution and the file
// operations. Callers match them with errors.Is.
var (
	// ErrInvalidPath means the virtual path is malformed or its scheme or
	// shape is not recognized.
	ErrInvalidPath = errors.New("invalid virtual path")

	// ErrUnknownDrive means no drive letter could be derived from a drive
	// display label.
	ErrUnknownDrive = errors.New("unknown drive")

	// ErrUnsupportedSource means an operation source did not resolve to a
	// concrete filesystem entry.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrUnsupportedDestination means an operation destination did not
	// resolve to a concrete directory.
	ErrUnsupportedDestination = errors.New("unsupported destination")

	// ErrSelfContainment means the destination lies inside one of the
	// sources being copied or moved.
	ErrSelfContainment = errors.New("destination is inside source")

	// ErrNoInput means an empty sources or targets list was supplied.
	ErrNoInput = errors.New("no input paths")

	// ErrNotDirectory means a path that must name a directory resolved to
	// something else.
	ErrNotDirectory = errors.New("not a directory")
)

// Operation names recorded in errors.
const (
	OpResolve = "resolve"
	OpList    = "list"
	OpCopy    = "copy"
	OpMove    = "move"
	OpDelete  = "delete"
)

// Error wraps a sentinel with the failing operation and virtual path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsPathError reports whether err is one of the validation sentinels, as
// opposed to an I/O failure. The HTTP layer maps these to 400s.
func IsPathError(err error) bool {
	return errors.Is(err, ErrInvalidPath) ||
		errors.Is(err, ErrUnknownDrive) ||
		errors.Is(err, ErrUnsupportedSource) ||
		errors.Is(err, ErrUnsupportedDestination) ||
		errors.Is(err, ErrSelfContainment) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNotDirectory)
}
