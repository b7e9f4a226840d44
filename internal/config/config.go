package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Defaults applied when a setting is unset.
const (
	DefaultKeyBackend  = "file"
	DefaultMinDelay    = 500 * time.Millisecond
	DefaultConcurrency = 8
	DefaultRetries     = 2
	DefaultRegion      = "US"
)

// Config holds the CLI settings. Every field is a string so that get/set/unset
// work uniformly; typed accessors apply defaults.
type Config struct {
	VaultDir       string `json:"vault_dir,omitempty"`
	KeyBackend     string `json:"key_backend,omitempty"`
	AllowPlaintext string `json:"allow_plaintext,omitempty"`
	FallbackRegion string `json:"fallback_region,omitempty"`
	MinDelay       string `json:"min_delay,omitempty"`
	Concurrency    string `json:"concurrency,omitempty"`
	Retries        string `json:"retries,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	DefaultOutput  string `json:"default_output,omitempty"`
	History        string `json:"history,omitempty"`

	path string
}

// Load reads config from the XDG path, returns defaults if file doesn't exist
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{path: path}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Config{path: path}
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Path returns the file this config is saved to
func (c *Config) Path() string {
	if c.path == "" {
		return ConfigPath()
	}
	return c.path
}

// Save writes the config
func (c *Config) Save() error {
	path := c.Path()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// JSON is valid JSON5
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Keys lists every setting name in declaration order
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := jsonKey(t.Field(i)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func jsonKey(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// field finds the settable field for key
func (c *Config) field(key string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		if jsonKey(t.Field(i)) == key {
			return v.Field(i), nil
		}
	}

	return reflect.Value{}, fmt.Errorf("unknown config key: %s", key)
}

// Get retrieves a config value by key name
func (c *Config) Get(key string) (string, error) {
	f, err := c.field(key)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

// Set validates and sets a config value by key name and saves
func (c *Config) Set(key, value string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if err := Validate(key, value); err != nil {
		return err
	}
	if key == "fallback_region" {
		value = strings.ToUpper(value)
	}
	f.SetString(value)
	return c.Save()
}

// Unset sets a config value to its zero value and saves
func (c *Config) Unset(key string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	f.SetString("")
	return c.Save()
}

// Validate checks value against the rules of key
func Validate(key, value string) error {
	switch key {
	case "key_backend":
		if value != "file" && value != "keyring" {
			return fmt.Errorf("key_backend must be file or keyring, got %q", value)
		}
	case "allow_plaintext", "history":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
	case "fallback_region":
		if !phonenumbers.GetSupportedRegions()[strings.ToUpper(value)] {
			return fmt.Errorf("unknown phone region %q (use a two-letter code such as US or GB)", value)
		}
	case "min_delay":
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("min_delay must be a non-negative duration such as 500ms, got %q", value)
		}
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("concurrency must be a positive integer, got %q", value)
		}
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("retries must be a non-negative integer, got %q", value)
		}
	case "default_output":
		switch value {
		case "json", "yaml", "plain", "rich", "auto":
		default:
			return fmt.Errorf("default_output must be one of json, yaml, plain, rich, auto, got %q", value)
		}
	}
	return nil
}

// KeyBackendOrDefault returns the vault key backend
func (c *Config) KeyBackendOrDefault() string {
	if c.KeyBackend == "" {
		return DefaultKeyBackend
	}
	return c.KeyBackend
}

// PlaintextAllowed reports whether the vault may be saved unencrypted
func (c *Config) PlaintextAllowed() bool {
	ok, _ := strconv.ParseBool(c.AllowPlaintext)
	return ok
}

// HistoryEnabled reports whether searches are recorded. Defaults to true.
func (c *Config) HistoryEnabled() bool {
	if c.History == "" {
		return true
	}
	ok, err := strconv.ParseBool(c.History)
	return err != nil || ok
}

// Region returns the phone region for numbers without a country code
func (c *Config) Region() string {
	if c.FallbackRegion == "" {
		return DefaultRegion
	}
	return strings.ToUpper(c.FallbackRegion)
}

// MinDelayOrDefault returns the governor spacing
func (c *Config) MinDelayOrDefault() time.Duration {
	d, err := time.ParseDuration(c.MinDelay)
	if err != nil || d < 0 {
		return DefaultMinDelay
	}
	return d
}

// ConcurrencyOrDefault returns the probe parallelism
func (c *Config) ConcurrencyOrDefault() int {
	n, err := strconv.Atoi(c.Concurrency)
	if err != nil || n < 1 {
		return DefaultConcurrency
	}
	return n
}

// RetriesOrDefault returns extra attempts for transient API failures
func (c *Config) RetriesOrDefault() int {
	n, err := strconv.Atoi(c.Retries)
	if err != nil || n < 0 {
		return DefaultRetries
	}
	return n
}
