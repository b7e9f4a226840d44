package lookup

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethos-finder/ethos/internal/provider"
)

// Stage is a step of the dispatch state machine.
type Stage int

const (
	StageValidating Stage = iota
	StageFreeTier
	StagePaidTier
	StageMerged
	StageSubEnumeration
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageFreeTier:
		return "free_tier"
	case StagePaidTier:
		return "paid_tier"
	case StageMerged:
		return "merged"
	case StageSubEnumeration:
		return "sub_enumeration"
	}
	return "unknown"
}

// Domain lookup methods.
const (
	MethodAPI            = "api"
	MethodPublic         = "public"
	MethodPublicFallback = "public_fallback"
	MethodPublicAPI      = "public+api"
)

// Field is one fact and the provider that reported it.
type Field struct {
	Provider string `json:"provider" yaml:"provider"`
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
}

// Failure is one provider error recorded in a result.
type Failure struct {
	Provider string             `json:"provider" yaml:"provider"`
	Kind     provider.ErrorKind `json:"kind" yaml:"kind"`
	Message  string             `json:"message" yaml:"message"`
}

// Result is the merged outcome of one search. Conflicting values from
// different providers are all kept.
type Result struct {
	ID        uuid.UUID     `json:"id" yaml:"id"`
	Query     string        `json:"query" yaml:"query"`
	Kind      provider.Kind `json:"kind" yaml:"kind"`
	Method    string        `json:"method" yaml:"method"`
	Fields    []Field       `json:"fields" yaml:"fields"`
	Errors    []Failure     `json:"errors" yaml:"errors"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Values returns every value reported under name by providerName, in order.
func (r Result) Values(providerName, name string) []string {
	var out []string
	for _, f := range r.Fields {
		if f.Provider == providerName && f.Name == name {
			out = append(out, f.Value)
		}
	}
	return out
}

// Value returns the first value reported under name by providerName.
func (r Result) Value(providerName, name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Provider == providerName && f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Providers returns the distinct providers that contributed fields, sorted.
func (r Result) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.Fields {
		if !seen[f.Provider] {
			seen[f.Provider] = true
			out = append(out, f.Provider)
		}
	}
	sort.Strings(out)
	return out
}

// HasErrorKind reports whether any failure has the given kind.
func (r Result) HasErrorKind(kind provider.ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// collector accumulates fields and failures from concurrent providers.
type collector struct {
	mu     sync.Mutex
	fields []Field
	errors []Failure
}

func (c *collector) add(providerName, name, value string) {
	c.mu.Lock()
	c.fields = append(c.fields, Field{Provider: providerName, Name: name, Value: value})
	c.mu.Unlock()
}

func (c *collector) addAll(fields []Field) {
	c.mu.Lock()
	c.fields = append(c.fields, fields...)
	c.mu.Unlock()
}

// fail records err. Errors that are not *provider.Error are attributed to
// fallbackProvider.
func (c *collector) fail(fallbackProvider string, err error) {
	f := Failure{Provider: fallbackProvider, Kind: provider.KindOf(err), Message: err.Error()}

	var perr *provider.Error
	if errors.As(err, &perr) {
		if perr.Provider != "" {
			f.Provider = perr.Provider
		}
		// message without the provider prefix
		f.Message = (&provider.Error{Kind: perr.Kind, Status: perr.Status, Err: perr.Err}).Error()
	}

	c.mu.Lock()
	c.errors = append(c.errors, f)
	c.mu.Unlock()
}

func (c *collector) snapshot() ([]Field, []Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := make([]Field, len(c.fields))
	copy(fields, c.fields)
	failures := make([]Failure, len(c.errors))
	copy(failures, c.errors)
	return fields, failures
}
