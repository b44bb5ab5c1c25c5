package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Engine lifecycle errors
const (
	// ErrCodeEngineNotRunning is returned by actions issued before Run.
	ErrCodeEngineNotRunning ErrorCode = "ENGINE_NOT_RUNNING"
	// ErrCodeEngineAlreadyRunning is returned by a second Run.
	ErrCodeEngineAlreadyRunning ErrorCode = "ENGINE_ALREADY_RUNNING"
	// ErrCodeEngineStopped is returned by anything issued after TearDown.
	ErrCodeEngineStopped ErrorCode = "ENGINE_STOPPED"
)

// Execution errors
const (
	// ErrCodeFileOpen indicates an input file could not be opened.
	ErrCodeFileOpen ErrorCode = "FILE_OPEN"
	// ErrCodeTaskFailed indicates a partition task did not produce its data.
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates a named item (step, input, function) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a name is already taken.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

// Reading files can fail transiently; everything else is deterministic.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeFileOpen:   true,
	ErrCodeTaskFailed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
