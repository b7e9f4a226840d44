package vault

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Key backends selectable through settings.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

const fallbackMarker = ".keyring-fallback-warned"

// warnOnce logs a warning the first time only. A marker file in the vault
// directory keeps it quiet on later runs.
func warnOnce(log zerolog.Logger, dir, msg string) {
	marker := filepath.Join(dir, fallbackMarker)
	if _, err := os.Stat(marker); err == nil {
		return
	}
	log.Warn().Msg(msg)
	if err := os.MkdirAll(dir, 0700); err == nil {
		_ = os.WriteFile(marker, []byte("1"), 0600)
	}
}

// NewKeySource picks the key backend. The keyring is used only when asked for
// and usable; WSL and headless hosts fall back to the key file.
func NewKeySource(backend, dir string, log zerolog.Logger) KeySource {
	file := &FileKeySource{Path: filepath.Join(dir, KeyFileName)}
	if backend != BackendKeyring {
		return file
	}

	// WSL and headless environments can't use keyring reliably
	if IsWSL() || IsHeadless() {
		warnOnce(log, dir, "Detected WSL/headless environment, keeping the vault key in a file")
		return file
	}

	ring, err := OpenKeyring(dir)
	if err != nil {
		warnOnce(log, dir, "Keyring unavailable ("+err.Error()+"), keeping the vault key in a file")
		return file
	}
	return NewKeyringKeySource(ring)
}

// IsWSL returns true if running under Windows Subsystem for Linux.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true if running in a headless environment (no display server).
// Only applicable on Linux; macOS and Windows are assumed to have GUI.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
