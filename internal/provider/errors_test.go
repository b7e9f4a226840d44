package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: ConfigMissing}, "credential not configured"},
		{"with provider", &Error{Provider: "shodan", Kind: AuthFailure, Status: 401}, "shodan: authentication failed (HTTP 401)"},
		{"with cause", NewError("public-dns", ProviderUnavailable, errors.New("no such host")), "public-dns: provider unavailable: no such host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewError("x", RateLimited, nil))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrAuthFailure)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, AuthFailure, KindOf(NewError("x", AuthFailure, nil)))
	assert.Equal(t, ConfigMissing, KindOf(fmt.Errorf("wrap: %w", ErrConfigMissing)))
	assert.Equal(t, ProviderUnavailable, KindOf(errors.New("boom")))
}

func TestStatusKind(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
		failed bool
	}{
		{200, 0, false},
		{302, 0, false},
		{401, AuthFailure, true},
		{403, AuthFailure, true},
		{404, ProviderUnavailable, true},
		{429, RateLimited, true},
		{503, ProviderUnavailable, true},
	}
	for _, tt := range tests {
		kind, failed := StatusKind(tt.status)
		assert.Equal(t, tt.failed, failed, "status %d", tt.status)
		assert.Equal(t, tt.kind, kind, "status %d", tt.status)
	}
}

func TestErrorKindText(t *testing.T) {
	text, err := AuthFailure.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "auth_failure", string(text))
	assert.Equal(t, "error_kind(99)", ErrorKind(99).String())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.False(t, isTimeout(errors.New("refused")))
}

func TestErrorKindUnmarshalText(t *testing.T) {
	var k ErrorKind
	assert.NoError(t, k.UnmarshalText([]byte("rate_limited")))
	assert.Equal(t, RateLimited, k)
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
}
