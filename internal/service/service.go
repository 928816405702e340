package service

import (
	"errors"

	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

// failure preserves typed domain errors raised lower in the stack and wraps
// anything else as an internal error with the given message.
func failure(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
