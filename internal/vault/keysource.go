package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// KeyFileName is the key file inside the vault directory.
const KeyFileName = ".ethos_key"

// ServiceName is the service identifier for keyring storage
const ServiceName = "ethos"

const keyringItem = "vault-key"

// ErrKeyNotFound is returned by a KeySource that holds no key yet.
var ErrKeyNotFound = errors.New("vault key not found")

// KeySource stores the symmetric vault key.
type KeySource interface {
	// Load returns the key, or ErrKeyNotFound when none was created yet.
	Load() ([]byte, error)
	// Create generates, persists and returns a new key.
	Create() ([]byte, error)
	// Remove deletes the key. Removing a missing key is not an error.
	Remove() error
	// Describe names the backend for display.
	Describe() string
}

// FileKeySource keeps the raw key bytes in a file readable only by the owner.
type FileKeySource struct {
	Path string
}

func (s *FileKeySource) Load() ([]byte, error) {
	key, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %s holds %d bytes", errCorruptKey, s.Path, len(key))
	}
	return key, nil
}

func (s *FileKeySource) Create() ([]byte, error) {
	key, err := newKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	// O_EXCL keeps a concurrent writer from replacing a key already in use.
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return s.Load()
		}
		return nil, fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

func (s *FileKeySource) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

func (s *FileKeySource) Describe() string {
	return "file " + s.Path
}

// KeyringKeySource keeps the key in the OS keyring.
type KeyringKeySource struct {
	ring keyring.Keyring
}

// NewKeyringKeySource wraps an opened keyring.
func NewKeyringKeySource(ring keyring.Keyring) *KeyringKeySource {
	return &KeyringKeySource{ring: ring}
}

// OpenKeyring opens the platform keyring for the vault.
// Returns an error if the keyring is unavailable on this platform.
func OpenKeyring(dir string) (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true, // macOS: don't prompt every access
		FileDir:                  filepath.Join(dir, "keyring"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func (s *KeyringKeySource) Load() ([]byte, error) {
	item, err := s.ring.Get(keyringItem)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("keyring get failed: %w", err)
	}
	if len(item.Data) != KeySize {
		return nil, fmt.Errorf("%w: keyring item holds %d bytes", errCorruptKey, len(item.Data))
	}
	return item.Data, nil
}

func (s *KeyringKeySource) Create() ([]byte, error) {
	key, err := newKey()
	if err != nil {
		return nil, err
	}
	item := keyring.Item{
		Key:         keyringItem,
		Data:        key,
		Label:       "ethos vault key",
		Description: "encrypts API credentials stored by ethos",
	}
	if err := s.ring.Set(item); err != nil {
		return nil, fmt.Errorf("keyring set failed: %w", err)
	}
	return key, nil
}

func (s *KeyringKeySource) Remove() error {
	if err := s.ring.Remove(keyringItem); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

func (s *KeyringKeySource) Describe() string {
	return "keyring " + ServiceName
}
