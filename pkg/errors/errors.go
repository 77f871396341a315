package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUsage         = errors.New("invalid invocation")
	ErrInputNotFound = errors.New("input collection not found")
	ErrIndexNotFound = errors.New("index file not found")
	ErrCorruptIndex  = errors.New("corrupt index")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
)

// Process exit statuses returned by ExitCode.
const (
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitCorrupt  = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Corruptf reports a malformed index record.
func Corruptf(format string, args ...any) *AppError {
	return Newf(ErrCorruptIndex, ExitCorrupt, format, args...)
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInputNotFound), errors.Is(err, ErrIndexNotFound):
		return ExitNotFound
	case errors.Is(err, ErrCorruptIndex):
		return ExitCorrupt
	default:
		return ExitFailure
	}
}
