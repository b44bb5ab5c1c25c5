package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

func EngineNotRunning() *AppError {
	return New(ErrCodeEngineNotRunning, "engine is not running")
}

func EngineAlreadyRunning() *AppError {
	return New(ErrCodeEngineAlreadyRunning, "engine is already running")
}

func EngineStopped() *AppError {
	return New(ErrCodeEngineStopped, "engine has been torn down")
}

// FileOpen reports an input file that could not be opened.
func FileOpen(path string, cause error) *AppError {
	return New(ErrCodeFileOpen, fmt.Sprintf("cannot open %s", path)).
		WithDetail("path", path).
		WithCause(cause)
}

// TaskFailed reports a partition task that failed, attributing it to the RDD
// and partition it was computing.
func TaskFailed(rddID, partition int, cause error) *AppError {
	return New(ErrCodeTaskFailed, fmt.Sprintf("task for rdd %d partition %d failed", rddID, partition)).
		WithDetails(map[string]any{"rdd": rddID, "partition": partition}).
		WithCause(cause)
}

// NotFound creates a new AppError for a named item that does not exist.
func NotFound(kind, name string) *AppError {
	details := map[string]any{"kind": kind}
	if name != "" {
		details["name"] = name
	}
	return New(ErrCodeNotFound, fmt.Sprintf("%s %q not found", kind, name)).WithDetails(details)
}

// AlreadyExists creates a new AppError for a duplicate name.
func AlreadyExists(kind, name string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s %q already exists", kind, name)).
		WithDetails(map[string]any{"kind": kind, "name": name})
}

// InvalidInput creates a new AppError for an invalid field.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("invalid input: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation creates a new AppError for struct validation failures.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected internal error").WithCause(cause)
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. Nil stays nil; AppErrors anywhere
// in the chain are returned as is; everything else becomes Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
