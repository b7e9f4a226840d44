package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a provider-scoped failure.
type ErrorKind int

const (
	InvalidInput ErrorKind = iota + 1
	ProviderUnavailable
	AuthFailure
	RateLimited
	ConfigMissing
	PersistenceFailure
)

var errorKindNames = map[ErrorKind]string{
	InvalidInput:        "invalid_input",
	ProviderUnavailable: "provider_unavailable",
	AuthFailure:         "auth_failure",
	RateLimited:         "rate_limited",
	ConfigMissing:       "config_missing",
	PersistenceFailure:  "persistence_failure",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind rendered by MarshalText.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range errorKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind: %q", text)
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrAuthFailure         = errors.New("authentication failed")
	ErrRateLimited         = errors.New("rate limited")
	ErrConfigMissing       = errors.New("credential not configured")
	ErrPersistence         = errors.New("persistence failure")
)

var kindSentinels = map[ErrorKind]error{
	InvalidInput:        ErrInvalidInput,
	ProviderUnavailable: ErrProviderUnavailable,
	AuthFailure:         ErrAuthFailure,
	RateLimited:         ErrRateLimited,
	ConfigMissing:       ErrConfigMissing,
	PersistenceFailure:  ErrPersistence,
}

// Error is a failure attributed to one provider.
type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int // HTTP status when the failure came from a response
	Err      error
}

func (e *Error) Error() string {
	msg := kindSentinels[e.Kind].Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Provider == "" {
		return msg
	}
	return e.Provider + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAuthFailure) match by kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// NewError builds a provider error.
func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// KindOf classifies any error. Unrecognized errors count as ProviderUnavailable.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ProviderUnavailable
}

// StatusKind maps an HTTP status code to an error kind. ok is false for 2xx/3xx.
func StatusKind(status int) (kind ErrorKind, ok bool) {
	switch {
	case status < 400:
		return 0, false
	case status == 401 || status == 403:
		return AuthFailure, true
	case status == 429:
		return RateLimited, true
	default:
		return ProviderUnavailable, true
	}
}

// isTimeout reports whether a transport error was a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
