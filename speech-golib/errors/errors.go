// Package errors wraps github.com/pkg/errors with the message-only wrapping
// and sentinel helpers used across the compiler.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errorf is re-exported from fmt
var Errorf = fmt.Errorf

// New is an alias to Errorf
var New = Errorf

// WrapfOrNil is WithMessagef re-exported from github.com/pkg/errors
func WrapfOrNil(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, fmt.Sprintf(format, args...))
}

// Wrapf is WrapfOrNil if err != nil, and Errorf otherwise: it never returns nil
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return Errorf(format, args...)
	}
	return WrapfOrNil(err, format, args...)
}

// Is reports whether err or anything it wraps matches target; it sees through
// Wrapf messages and Errors lists.
var Is = errors.Is

// Sentinel returns an error value meant to be compared against with Is. It
// records the stack of package initialization, not of the failure.
func Sentinel(msg string) error {
	return errors.New(msg)
}
