package nodecode

import "errors"

// Node code registry errors.
var (
	// ErrNotFound is returned when a node code is not registered.
	ErrNotFound = errors.New("node code not found")

	// ErrKeyEmpty is returned when a node code has no key.
	ErrKeyEmpty = errors.New("node code key cannot be empty")

	// ErrExecuteNil is returned when a node code has no execute function.
	ErrExecuteNil = errors.New("node code execute function cannot be nil")

	// ErrDescriptorKeyEmpty is returned when a configuration descriptor has no key.
	ErrDescriptorKeyEmpty = errors.New("configuration descriptor key cannot be empty")

	// ErrDuplicateDescriptor is returned when a node code declares a key twice.
	ErrDuplicateDescriptor = errors.New("duplicate configuration descriptor")

	// ErrAlreadyRegistered is returned when registering a duplicate.
	ErrAlreadyRegistered = errors.New("node code already registered")

	// ErrMissingConfig is returned when a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration value")

	// ErrUnknownShape is returned when a model shape is not registered.
	ErrUnknownShape = errors.New("unknown model shape")

	// ErrNoFencedJSON is returned when a reply holds no ```json fenced block.
	ErrNoFencedJSON = errors.New("no fenced JSON block found")
)
