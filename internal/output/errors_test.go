package output

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethos-finder/ethos/internal/provider"
)

func TestNewCLIError(t *testing.T) {
	err := NewCLIError(ExitAuth, "authentication failed")
	assert.Equal(t, ExitAuth, err.ExitCode)
	assert.Equal(t, "authentication failed", err.Message)
	assert.Empty(t, err.Hint)
}

func TestCLIErrorError(t *testing.T) {
	err := &CLIError{Message: "something broke"}
	assert.Equal(t, "something broke", err.Error())
}

func TestCLIErrorWithHint(t *testing.T) {
	err := NewCLIError(ExitConfigError, "no credential")
	result := err.WithHint("Run: ethos vault set-key shodan")

	// Fluent builder returns same pointer
	assert.Same(t, err, result)
	assert.Equal(t, "Run: ethos vault set-key shodan", err.Hint)
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		kind     provider.ErrorKind
		expected int
	}{
		{provider.InvalidInput, ExitInvalidInput},
		{provider.ConfigMissing, ExitConfigError},
		{provider.AuthFailure, ExitAuth},
		{provider.RateLimited, ExitRateLimit},
		{provider.ProviderUnavailable, ExitNetworkError},
		{provider.PersistenceFailure, ExitIOError},
		{provider.ErrorKind(0), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeFor(tt.kind))
		})
	}
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("save: %w", provider.NewError("vault", provider.PersistenceFailure, errors.New("disk full")))
	assert.Equal(t, ExitIOError, FromError(wrapped).ExitCode)

	cliErr := NewCLIError(ExitUsage, "bad flag")
	assert.Same(t, cliErr, FromError(cliErr))

	assert.Equal(t, ExitGeneral, FromError(errors.New("boom")).ExitCode)
}

func TestExitWithError(t *testing.T) {
	var stderr bytes.Buffer
	f := NewWithWriters("plain", &bytes.Buffer{}, &stderr)

	code := ExitWithError(f, NewCLIError(ExitNotFound, "shodan: not found in vault").WithHint("Run: ethos vault list"))

	assert.Equal(t, ExitNotFound, code)
	assert.Equal(t, "error: shodan: not found in vault\nhint: Run: ethos vault list\n", stderr.String())
}
