// Package browser opens URLs in the user's desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// command returns the opener for goos, or nil when the platform has none.
func command(goos, target string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", target)
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	}
	return nil
}

// Open opens target in the default browser. Only http and https URLs are
// accepted; unsupported platforms are silently ignored.
func Open(target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", target)
	}

	cmd := command(runtime.GOOS, u.String())
	if cmd == nil {
		return nil
	}
	return cmd.Start()
}
