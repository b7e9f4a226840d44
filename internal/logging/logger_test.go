package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "default is info", verbose: false, wantDebug: false},
		{name: "verbose enables debug", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Verbose: tt.verbose, Out: &buf})

			log.Debug().Msg("probe sent")
			log.Info().Str("provider", "shodan").Msg("search finished")

			out := buf.String()
			assert.Contains(t, out, "search finished")
			assert.Contains(t, out, "provider=shodan")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("probe sent")))
		})
	}
}

func TestNewNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Out: &buf})
	log.Warn().Msg("plain")

	assert.NotContains(t, buf.String(), "\x1b[")
}
