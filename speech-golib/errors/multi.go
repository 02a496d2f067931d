package errors

import (
	"strings"
)

// Errors represents a list of errors; any non-nil Errors value represents a non-empty list of errors.
// Compare an Errors value with nil to check for the absence of errors.
type Errors interface {
	error
	// Slice returns a (non-empty) copy of the underlying (non-nil) errors.
	Slice() []error
	// Len is always > 0.
	Len() int
	// First returns the first error that was appended.
	First() error

	sliceNoCopy() []error
	append(e error) Errors
}

type errorSlice []error

func (m errorSlice) append(e error) Errors {
	return errorSlice(append(m, e))
}

func (m errorSlice) sliceNoCopy() []error {
	return []error(m)
}

func (m errorSlice) Slice() []error {
	return append([]error(nil), m...)
}

func (m errorSlice) Len() int {
	return len(m)
}

func (m errorSlice) First() error {
	return m[0]
}

func (m errorSlice) Error() string {
	msgs := make([]string, 0, len(m))
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Is reports whether any of the collected errors matches target.
func (m errorSlice) Is(target error) bool {
	for _, err := range m {
		if Is(err, target) {
			return true
		}
	}
	return false
}

// Append appends the given (possibly nil) error to the given (possibly nil) Errors.
// If the error is nil, it returns the given Errors unchanged.
func Append(errs Errors, err error) Errors {
	if err == nil {
		return errs
	}
	if errs == nil {
		errs = errorSlice(nil)
	}
	if multi, ok := err.(Errors); ok && multi != nil {
		for _, e := range multi.sliceNoCopy() {
			errs = errs.append(e)
		}
		return errs
	}
	return errs.append(err)
}

// Combine combines errors e & f into a single error; nil when both are nil.
func Combine(e, f error) error {
	var errs Errors
	if multi, ok := e.(Errors); ok && multi != nil {
		// copy so the caller's backing array is never shared
		errs = errorSlice(multi.Slice())
	} else {
		errs = Append(errs, e)
	}
	errs = Append(errs, f)
	if errs == nil {
		return nil
	}
	if errs.Len() == 1 {
		return errs.First()
	}
	return errs
}

// Defer is a helper method for deferring error-returning functions
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
