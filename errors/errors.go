package errors

import (
	goerrors "errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around filesystem result codes, with a customizable
// error message. Errors that originate from the flash controller also carry the
// controller's raw status.
type DriverError interface {
	error
	Code() Code
	Status() Status
	Unwrap() error
}

type driverError struct {
	code          Code
	status        Status
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.code)
}

func (e driverError) Code() Code {
	return e.code
}

// Status gives the controller status that caused this error, or
// [StatusSuccess] if the error didn't come from the controller.
func (e driverError) Status() Status {
	return e.status
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// Is makes any two driver errors with the same result code compare equal under
// [errors.Is], so callers can test against the sentinels regardless of message.
func (e driverError) Is(target error) bool {
	other, ok := target.(driverError)
	return ok && other.code == e.code
}

// New creates a new [DriverError] with a default message derived from the
// result code.
func New(code Code) DriverError {
	return driverError{
		code:    code,
		message: StrError(code),
	}
}

func NewFromError(code Code, originalError error) DriverError {
	return driverError{
		code:          code,
		message:       fmt.Sprintf("%s: %s", StrError(code), originalError.Error()),
		originalError: originalError,
	}
}

// NewWithMessage creates a new DriverError from a result code with a custom
// message.
func NewWithMessage(code Code, message string) DriverError {
	return driverError{
		code:    code,
		message: fmt.Sprintf("%s: %s", StrError(code), message),
	}
}

// NewFromErrors collapses several errors into one DriverError with the given
// code. It returns nil if `errs` contains no non-nil errors.
func NewFromErrors(code Code, errs ...error) DriverError {
	var merged *multierror.Error
	for _, err := range errs {
		if err != nil {
			merged = multierror.Append(merged, err)
		}
	}
	if merged.ErrorOrNil() == nil {
		return nil
	}
	return NewFromError(code, merged)
}

// ResultCode gives the value a filesystem engine expects to see for `err`:
// zero for nil, the error's code for a [DriverError], and [EIO] for anything
// else.
func ResultCode(err error) int {
	if err == nil {
		return int(EOK)
	}
	var driverErr DriverError
	if goerrors.As(err, &driverErr) {
		return int(driverErr.Code())
	}
	return int(EIO)
}

// StatusOf extracts the controller status carried by `err`, if any.
func StatusOf(err error) (Status, bool) {
	var driverErr DriverError
	if !goerrors.As(err, &driverErr) || driverErr.Status() == StatusSuccess {
		return StatusSuccess, false
	}
	return driverErr.Status(), true
}
