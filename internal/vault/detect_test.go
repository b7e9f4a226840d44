package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewKeySourceDefaultsToFile(t *testing.T) {
	dir := t.TempDir()
	ks := NewKeySource(BackendFile, dir, zerolog.Nop())

	fks, ok := ks.(*FileKeySource)
	if assert.True(t, ok) {
		assert.Equal(t, filepath.Join(dir, KeyFileName), fks.Path)
	}
}

func TestNewKeySourceHeadlessFallsBack(t *testing.T) {
	if !IsHeadless() && !IsWSL() {
		t.Skip("needs a headless or WSL host")
	}
	dir := t.TempDir()
	ks := NewKeySource(BackendKeyring, dir, zerolog.Nop())
	_, ok := ks.(*FileKeySource)
	assert.True(t, ok)

	_, err := os.Stat(filepath.Join(dir, fallbackMarker))
	assert.NoError(t, err, "warning marker written")
}

func TestFileKeySourceCreateKeepsExistingKey(t *testing.T) {
	ks := &FileKeySource{Path: filepath.Join(t.TempDir(), "sub", KeyFileName)}

	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrKeyNotFound)

	first, err := ks.Create()
	assert.NoError(t, err)
	second, err := ks.Create()
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NoError(t, ks.Remove())
	assert.NoError(t, ks.Remove())
}
