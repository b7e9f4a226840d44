package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the length of the vault key in bytes (AES-256).
const KeySize = 32

// Outcome tells whether a stored value was ciphertext.
type Outcome int

const (
	// Decrypted means the value authenticated under the vault key.
	Decrypted Outcome = iota
	// AssumedPlaintext means the value could not be decrypted and is used as
	// stored. It will be encrypted on the next save.
	AssumedPlaintext
)

func (o Outcome) String() string {
	if o == Decrypted {
		return "decrypted"
	}
	return "assumed_plaintext"
}

var errCorruptKey = errors.New("vault key is corrupt")

// newAEAD creates AES-256-GCM from a raw key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", errCorruptKey, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// seal encrypts plaintext with a random nonce and returns base64(nonce||box).
func seal(gcm cipher.AEAD, plaintext string) (string, error) {
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(box), nil
}

// open decrypts a value produced by seal. Anything that is not valid base64,
// is too short, or fails authentication is returned unchanged as plaintext.
// A nil gcm means no key is available.
func open(gcm cipher.AEAD, stored string) (string, Outcome) {
	if gcm == nil {
		return stored, AssumedPlaintext
	}
	box, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored, AssumedPlaintext
	}
	nonceSize := gcm.NonceSize()
	if len(box) < nonceSize+gcm.Overhead() {
		return stored, AssumedPlaintext
	}
	plaintext, err := gcm.Open(nil, box[:nonceSize], box[nonceSize:], nil)
	if err != nil {
		return stored, AssumedPlaintext
	}
	return string(plaintext), Decrypted
}

func newKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
