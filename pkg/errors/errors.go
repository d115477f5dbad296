// Package errors defines the sentinel errors shared by the harness binaries and
// an AppError wrapper that carries the process exit code for a failure.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedCorpus   = errors.New("malformed corpus")
	ErrInvalidToken      = errors.New("invalid document id token")
	ErrLineCountMismatch = errors.New("line count mismatch")
	ErrIncorrectLines    = errors.New("incorrect lines")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrSinkUnavailable   = errors.New("run sink unavailable")
)

// Exit codes used by the cmd/ binaries.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitMismatches = 2
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

// ExitCode maps err to the process exit status. Errors without an AppError
// in their chain are treated as generic failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return ExitFailure
}
