package output

import (
	"errors"
	"fmt"

	"github.com/ethos-finder/ethos/internal/provider"
)

// Exit codes following sysexits.h convention
const (
	ExitOK           = 0  // Success
	ExitGeneral      = 1  // General error
	ExitUsage        = 2  // Invalid usage / bad arguments
	ExitAuth         = 3  // Provider rejected the credential
	ExitNotFound     = 4  // Name not in the vault or history
	ExitRateLimit    = 75 // Rate limited (EX_TEMPFAIL from sysexits.h)
	ExitConfigError  = 10 // Credential or setting missing
	ExitNetworkError = 11 // Provider unreachable or failing
	ExitInvalidInput = 65 // Query failed validation (EX_DATAERR)
	ExitIOError      = 74 // Vault or history could not be written (EX_IOERR)
)

// CLIError represents a structured error with exit code and optional hint
type CLIError struct {
	ExitCode int
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLIError
func NewCLIError(code int, msg string) *CLIError {
	return &CLIError{
		ExitCode: code,
		Message:  msg,
	}
}

// WithHint adds a user-facing hint to the error
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// ExitCodeFor maps an error kind to its process exit code.
func ExitCodeFor(kind provider.ErrorKind) int {
	switch kind {
	case provider.InvalidInput:
		return ExitInvalidInput
	case provider.ConfigMissing:
		return ExitConfigError
	case provider.AuthFailure:
		return ExitAuth
	case provider.RateLimited:
		return ExitRateLimit
	case provider.ProviderUnavailable:
		return ExitNetworkError
	case provider.PersistenceFailure:
		return ExitIOError
	}
	return ExitGeneral
}

// FromError wraps err as a CLIError with the exit code of its kind. CLIErrors
// pass through unchanged.
func FromError(err error) *CLIError {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		return NewCLIError(ExitCodeFor(perr.Kind), err.Error())
	}
	return NewCLIError(ExitGeneral, err.Error())
}

// ExitWithError prints the error and its hint via the formatter. The caller
// exits with the returned code.
func ExitWithError(formatter Formatter, err error) int {
	cliErr := FromError(err)
	if cliErr == nil {
		return ExitOK
	}
	formatter.PrintError(fmt.Errorf("%s", cliErr.Message))
	if cliErr.Hint != "" {
		formatter.PrintHint(cliErr.Hint)
	}
	return cliErr.ExitCode
}
