package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsNonHTTP(t *testing.T) {
	for _, target := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", ""} {
		assert.Error(t, Open(target), target)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd := command(tt.goos, "https://github.com/octocat")
			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd.Args[0])
			assert.Equal(t, "https://github.com/octocat", cmd.Args[len(cmd.Args)-1])
		})
	}

	assert.Nil(t, command("plan9", "https://example.com"))
}
