package process

import "errors"

var (
	// ErrUnknownProcess means no registered process has the requested key.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrDuplicateProcess means a process key was registered twice.
	ErrDuplicateProcess = errors.New("duplicate process")
	// ErrHydration means a process document could not be turned into a Process.
	ErrHydration = errors.New("process hydration failed")
)
