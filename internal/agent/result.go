package agent

// Result is the terminal outcome of one agent invocation.
type Result int

const (
	// Success means a process was chosen or built and ran without error.
	Success Result = iota
	// Failure accompanies every fatal error.
	Failure
	// InsufficientProcessingFailure means the brain's decision was unusable:
	// no process named, or a synthesized process that failed validation.
	// The caller may retry with a different mission or stimulus.
	InsufficientProcessingFailure
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	case InsufficientProcessingFailure:
		return "INSUFFICIENT_PROCESSING_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps a result to a process exit status.
func (r Result) ExitCode() int {
	switch r {
	case Success:
		return 0
	case InsufficientProcessingFailure:
		return 2
	default:
		return 1
	}
}
