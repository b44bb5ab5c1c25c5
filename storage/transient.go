package storage

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/kbukum/minispark/errors"
)

// Transient reports whether an open failure may succeed if tried again.
// Missing objects, permission errors, bad paths and cancellation are final.
func Transient(err error) bool {
	switch {
	case err == nil:
		return false
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return false
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission), stderrors.Is(err, fs.ErrInvalid):
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}
