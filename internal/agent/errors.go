package agent

import "errors"

var (
	// ErrBrainFailure means the brain answered with an error or without content.
	ErrBrainFailure = errors.New("brain returned no content")
	// ErrCognition wraps extraction and payload errors (cognition.ErrNoJSON,
	// cognition.ErrInvalidJSON, cognition.ErrMalformedPayload).
	ErrCognition = errors.New("cognition failed")
)
