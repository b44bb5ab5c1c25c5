// Package errors provides the structured error type returned by the engine,
// the job loader and the configuration layer.
//
// Every AppError carries a machine-readable ErrorCode so callers can branch
// on the failure class with HasCode instead of matching message text.
// The standard library errors.Is / errors.As work through Unwrap.
package errors
