// Package vault persists provider credentials encrypted at rest.
//
// The vault is one JSON document plus one symmetric key. Secrets are sealed
// with AES-256-GCM; values that do not decrypt are taken as plaintext written
// by an older version and get encrypted on the next save. Environment
// variables override stored secrets and are never written back.
package vault

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/ethos-finder/ethos/internal/provider"
)

// DocumentFileName is the vault document inside the vault directory.
const DocumentFileName = "config.json"

const component = "vault"

var (
	// ErrNotFound is returned when removing a name the vault does not hold.
	ErrNotFound = errors.New("not found in vault")
	// ErrEncryptionUnavailable is returned by Save when no key can be obtained
	// and plaintext storage was not allowed.
	ErrEncryptionUnavailable = errors.New("encryption unavailable")
)

// DefaultDir returns the vault directory under the XDG data home.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "ethos")
}

// Options configures a Vault.
type Options struct {
	Dir            string    // defaults to DefaultDir()
	Keys           KeySource // defaults to the key file in Dir
	AllowPlaintext bool      // save unencrypted when no key is available
	Logger         zerolog.Logger
	Getenv         func(string) string // defaults to os.Getenv
}

// Vault is the credential store. It is safe for concurrent use.
type Vault struct {
	dir            string
	docPath        string
	lockPath       string
	keys           KeySource
	allowPlaintext bool
	log            zerolog.Logger
	getenv         func(string) string

	keyMu sync.Mutex
	gcm   cipher.AEAD

	saveMu sync.Mutex

	mu      sync.RWMutex
	doc     Document
	fromEnv map[string]string
	loaded  bool
}

// New creates a vault. Nothing is read until Load or the first accessor.
func New(opts Options) *Vault {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	keys := opts.Keys
	if keys == nil {
		keys = &FileKeySource{Path: filepath.Join(dir, KeyFileName)}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	docPath := filepath.Join(dir, DocumentFileName)
	return &Vault{
		dir:            dir,
		docPath:        docPath,
		lockPath:       docPath + ".lock",
		keys:           keys,
		allowPlaintext: opts.AllowPlaintext,
		log:            opts.Logger.With().Str("component", component).Logger(),
		getenv:         getenv,
		doc:            emptyDocument(),
	}
}

// Dir returns the vault directory.
func (v *Vault) Dir() string { return v.dir }

// Path returns the vault document path.
func (v *Vault) Path() string { return v.docPath }

// cipher returns the cached AEAD, loading the key on first use. A missing key
// is generated only when create is set.
func (v *Vault) cipher(create bool) (cipher.AEAD, error) {
	v.keyMu.Lock()
	defer v.keyMu.Unlock()

	if v.gcm != nil {
		return v.gcm, nil
	}

	key, err := v.keys.Load()
	if errors.Is(err, ErrKeyNotFound) && create {
		key, err = v.keys.Create()
		if err == nil {
			v.log.Info().Str("keys", v.keys.Describe()).Msg("created vault key")
		}
	}
	if err != nil {
		return nil, err
	}

	gcm, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	v.gcm = gcm
	return gcm, nil
}

// Load reads the vault. It never fails: an unreadable or malformed document
// is logged and replaced by an empty one.
func (v *Vault) Load() Document {
	env := readEnv(v.getenv)
	doc := emptyDocument()

	data, err := os.ReadFile(v.docPath)
	switch {
	case err == nil:
		parsed, perr := decodeDocument(data)
		if perr != nil {
			v.log.Warn().Err(perr).Str("path", v.docPath).Msg("vault document unreadable, starting empty")
			break
		}
		doc = parsed
		v.decryptFields(&doc, env)
	case os.IsNotExist(err):
	default:
		v.log.Error().Err(err).Str("path", v.docPath).Msg("failed to read vault document")
	}

	for field, value := range env {
		doc.setSecret(field, value)
		v.log.Debug().Str("env", EnvVars[field]).Msg("secret loaded from environment")
	}

	v.mu.Lock()
	v.doc = doc
	v.fromEnv = env
	v.loaded = true
	v.mu.Unlock()

	return doc.clone()
}

func (v *Vault) decryptFields(doc *Document, env map[string]string) {
	var gcm cipher.AEAD
	var keyErr error
	keyTried := false

	for _, field := range secretFields {
		stored := doc.secret(field)
		if stored == "" {
			continue
		}
		if _, overridden := env[field]; overridden {
			continue
		}
		if !keyTried {
			gcm, keyErr = v.cipher(false)
			keyTried = true
			if keyErr != nil && !errors.Is(keyErr, ErrKeyNotFound) {
				v.log.Warn().Err(keyErr).Msg("vault key unusable, stored secrets are read as plaintext")
			}
		}
		plain, outcome := open(gcm, stored)
		if outcome == AssumedPlaintext {
			v.log.Info().Str("field", field).Msg("stored secret is not encrypted, it will be encrypted on next save")
		}
		doc.setSecret(field, plain)
	}
}

func (v *Vault) ensureLoaded() {
	v.mu.RLock()
	loaded := v.loaded
	v.mu.RUnlock()
	if !loaded {
		v.Load()
	}
}

func persistErr(err error) error {
	return provider.NewError(component, provider.PersistenceFailure, err)
}

// Save writes the vault. Secrets that came from the environment are written
// as empty strings; the rest are sealed under the vault key.
func (v *Vault) Save() error {
	v.ensureLoaded()

	v.saveMu.Lock()
	defer v.saveMu.Unlock()

	v.mu.RLock()
	snap := v.doc.clone()
	env := v.fromEnv
	v.mu.RUnlock()

	for field := range env {
		snap.setSecret(field, "")
	}

	gcm, err := v.cipher(true)
	if err != nil {
		if !v.allowPlaintext {
			v.log.Error().Err(err).Msg("cannot encrypt vault, refusing to store secrets in plaintext")
			return persistErr(fmt.Errorf("%w: %v", ErrEncryptionUnavailable, err))
		}
		v.log.Warn().Err(err).Msg("vault key unavailable, storing secrets in PLAINTEXT")
		gcm = nil
	}

	if gcm != nil {
		for _, field := range secretFields {
			plain := snap.secret(field)
			if plain == "" {
				continue
			}
			sealed, err := seal(gcm, plain)
			if err != nil {
				v.log.Error().Err(err).Str("field", field).Msg("failed to encrypt secret")
				return persistErr(err)
			}
			snap.setSecret(field, sealed)
		}
	}

	data, err := encodeDocument(snap)
	if err != nil {
		v.log.Error().Err(err).Msg("failed to encode vault")
		return persistErr(err)
	}
	if err := v.writeLocked(func() error { return writeAtomic(v.docPath, data) }); err != nil {
		v.log.Error().Err(err).Str("path", v.docPath).Msg("failed to save vault")
		return persistErr(err)
	}
	return nil
}

// writeLocked runs fn while holding the cross-process vault lock.
func (v *Vault) writeLocked(fn func() error) error {
	if err := os.MkdirAll(v.dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	lock := flock.New(v.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout")
	}
	defer lock.Unlock()

	return fn()
}

// writeAtomic replaces path through a synced temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace vault document: %w", err)
	}
	return nil
}

// Set stores a generic provider: its host under name and secret as the
// shared provider key.
func (v *Vault) Set(name, host, secret string) error {
	name, host, secret = strings.TrimSpace(name), strings.TrimSpace(host), strings.TrimSpace(secret)
	if name == "" || host == "" || secret == "" {
		return provider.NewError(component, provider.InvalidInput, errors.New("name, host and secret are required"))
	}
	if IsService(name) {
		return provider.NewError(component, provider.InvalidInput, fmt.Errorf("%s is a built-in service, use its service key instead", name))
	}

	v.ensureLoaded()
	v.mu.Lock()
	v.doc.ProviderHosts[name] = host
	v.doc.ProviderKey = secret
	v.warnIfOverridden(FieldProviderKey)
	v.mu.Unlock()

	return v.Save()
}

// warnIfOverridden must be called with mu held.
func (v *Vault) warnIfOverridden(field string) {
	if _, ok := v.fromEnv[field]; ok {
		v.log.Warn().Str("env", EnvVars[field]).Msg("environment variable is set, the stored secret is not persisted while it is")
	}
}

// SetServiceKey stores the secret of a well-known service.
func (v *Vault) SetServiceKey(service, secret string) error {
	secret = strings.TrimSpace(secret)
	if !IsService(service) {
		return provider.NewError(component, provider.InvalidInput, fmt.Errorf("unknown service %q (known: %s)", service, strings.Join(Services, ", ")))
	}
	if secret == "" {
		return provider.NewError(component, provider.InvalidInput, errors.New("secret is required"))
	}

	v.ensureLoaded()
	v.mu.Lock()
	v.doc.setSecret(service, secret)
	v.warnIfOverridden(service)
	v.mu.Unlock()

	return v.Save()
}

// Remove deletes a generic provider or clears a service key.
func (v *Vault) Remove(name string) error {
	v.ensureLoaded()

	v.mu.Lock()
	switch {
	case IsService(name):
		if v.doc.ExtraKeys[name] == "" {
			v.mu.Unlock()
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		v.doc.ExtraKeys[name] = ""
	default:
		if _, ok := v.doc.ProviderHosts[name]; !ok {
			v.mu.Unlock()
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		delete(v.doc.ProviderHosts, name)
	}
	v.mu.Unlock()

	return v.Save()
}

// Get returns the secret used for name: the service key for a well-known
// service, the shared provider key for a configured generic provider.
func (v *Vault) Get(name string) (string, bool) {
	v.ensureLoaded()
	v.mu.RLock()
	defer v.mu.RUnlock()

	if IsService(name) {
		s := v.doc.ExtraKeys[name]
		return s, s != ""
	}
	if _, ok := v.doc.ProviderHosts[name]; ok && v.doc.ProviderKey != "" {
		return v.doc.ProviderKey, true
	}
	return "", false
}

// Hosts returns a copy of the generic provider table.
func (v *Vault) Hosts() map[string]string {
	v.ensureLoaded()
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]string, len(v.doc.ProviderHosts))
	for k, h := range v.doc.ProviderHosts {
		out[k] = h
	}
	return out
}

// Entry is one configured generic provider.
type Entry struct {
	Name string `json:"name" yaml:"name"`
	Host string `json:"host" yaml:"host"`
}

// SecretStatus describes one secret without revealing it.
type SecretStatus struct {
	Name       string `json:"name" yaml:"name"`
	Configured bool   `json:"configured" yaml:"configured"`
	FromEnv    bool   `json:"from_env" yaml:"from_env"`
	EnvVar     string `json:"env_var" yaml:"env_var"`
}

// Listing is the displayable state of the vault. It never carries secrets.
type Listing struct {
	Providers []Entry        `json:"providers" yaml:"providers"`
	Secrets   []SecretStatus `json:"secrets" yaml:"secrets"`
	Encrypted bool           `json:"encrypted" yaml:"encrypted"`
	KeySource string         `json:"key_source" yaml:"key_source"`
	Path      string         `json:"path" yaml:"path"`
}

// List reports configured providers and secret status.
func (v *Vault) List() Listing {
	v.ensureLoaded()

	v.mu.RLock()
	l := Listing{
		Providers: make([]Entry, 0, len(v.doc.ProviderHosts)),
		KeySource: v.keys.Describe(),
		Path:      v.docPath,
	}
	for name, host := range v.doc.ProviderHosts {
		l.Providers = append(l.Providers, Entry{Name: name, Host: host})
	}
	for _, field := range secretFields {
		_, fromEnv := v.fromEnv[field]
		l.Secrets = append(l.Secrets, SecretStatus{
			Name:       field,
			Configured: v.doc.secret(field) != "",
			FromEnv:    fromEnv,
			EnvVar:     EnvVars[field],
		})
	}
	v.mu.RUnlock()

	sort.Slice(l.Providers, func(i, j int) bool { return l.Providers[i].Name < l.Providers[j].Name })

	_, err := v.cipher(false)
	l.Encrypted = err == nil
	return l
}

// Reset deletes the vault document and, when removeKey is set, the key.
// Environment overrides stay in effect.
func (v *Vault) Reset(removeKey bool) error {
	err := v.writeLocked(func() error {
		if err := os.Remove(v.docPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove vault document: %w", err)
		}
		return nil
	})
	if err != nil {
		v.log.Error().Err(err).Msg("failed to reset vault")
		return persistErr(err)
	}

	if removeKey {
		if err := v.keys.Remove(); err != nil {
			v.log.Error().Err(err).Msg("failed to remove vault key")
			return persistErr(err)
		}
		v.keyMu.Lock()
		v.gcm = nil
		v.keyMu.Unlock()
	}

	env := readEnv(v.getenv)
	doc := emptyDocument()
	for field, value := range env {
		doc.setSecret(field, value)
	}
	v.mu.Lock()
	v.doc = doc
	v.fromEnv = env
	v.loaded = true
	v.mu.Unlock()
	return nil
}
