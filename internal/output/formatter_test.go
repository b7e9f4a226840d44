package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ethos-finder/ethos/internal/lookup"
	"github.com/ethos-finder/ethos/internal/provider"
)

func sampleResult() lookup.Result {
	return lookup.Result{
		ID:     uuid.MustParse("5b0c5f63-7a38-4f55-9a8e-3c4f0c3e9a11"),
		Query:  "example.com",
		Kind:   provider.KindDomain,
		Method: lookup.MethodPublic,
		Fields: []lookup.Field{
			{Provider: "public-dns", Name: "ip_address", Value: "93.184.216.34"},
		},
		Errors: []lookup.Failure{
			{Provider: "shodan", Kind: provider.ConfigMissing, Message: "credential not configured"},
		},
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  250 * time.Millisecond,
	}
}

type listItem struct {
	Name string
	Host string
}

func TestJSONPrintResult(t *testing.T) {
	var out bytes.Buffer
	f := NewWithWriters("json", &out, &bytes.Buffer{})

	require.NoError(t, f.PrintResult(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "example.com", decoded["query"])
	assert.Equal(t, "5b0c5f63-7a38-4f55-9a8e-3c4f0c3e9a11", decoded["id"])

	errs := decoded["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "config_missing", errs[0].(map[string]any)["kind"])
}

func TestJSONPrintListEnvelope(t *testing.T) {
	var out bytes.Buffer
	f := NewWithWriters("json", &out, &bytes.Buffer{})

	require.NoError(t, f.PrintList([]listItem{{"a", "a.p.rapidapi.com"}, {"b", "b.p.rapidapi.com"}}, nil))

	var decoded struct {
		Count int        `json:"count"`
		Data  []listItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, "b", decoded.Data[1].Name)
}

func TestJSONPrintError(t *testing.T) {
	var stderr bytes.Buffer
	f := NewWithWriters("json", &bytes.Buffer{}, &stderr)

	f.PrintError(errors.New("boom"))
	f.PrintHint("ignored")

	assert.JSONEq(t, `{"error":"boom"}`, stderr.String())
}

func TestYAMLPrintResult(t *testing.T) {
	var out bytes.Buffer
	f := NewWithWriters("yaml", &out, &bytes.Buffer{})

	require.NoError(t, f.PrintResult(sampleResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "example.com", decoded["query"])
	assert.Equal(t, "public", decoded["method"])
	assert.Contains(t, out.String(), "kind: config_missing")
}

func TestPlainPrintResult(t *testing.T) {
	var out bytes.Buffer
	f := NewWithWriters("plain", &out, &bytes.Buffer{})

	require.NoError(t, f.PrintResult(sampleResult()))

	expected := "query\texample.com\n" +
		"kind\tdomain\n" +
		"method\tpublic\n" +
		"public-dns\tip_address\t93.184.216.34\n" +
		"error\tshodan\tconfig_missing\tcredential not configured\n"
	assert.Equal(t, expected, out.String())
}

func TestPlainPrintList(t *testing.T) {
	tests := []struct {
		name     string
		items    any
		expected string
	}{
		{
			name:     "structs",
			items:    []listItem{{"ig", "ig.p.rapidapi.com"}},
			expected: "Name\tHost\nig\tig.p.rapidapi.com\n",
		},
		{
			name:     "maps",
			items:    []map[string]string{{"Name": "x", "Host": "y"}},
			expected: "Name\tHost\nx\ty\n",
		},
		{
			name:     "empty",
			items:    []listItem{},
			expected: "Name\tHost\n",
		},
	}

	cols := []Column{{Name: "Name", Key: "Name"}, {Name: "Host", Key: "Host"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			f := NewWithWriters("plain", &out, &bytes.Buffer{})
			require.NoError(t, f.PrintList(tt.items, cols))
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestPrintListRequiresSlice(t *testing.T) {
	for _, mode := range []string{"plain", "rich"} {
		f := NewWithWriters(mode, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Error(t, f.PrintList(listItem{}, nil), mode)
	}
}

func TestRichPrintResult(t *testing.T) {
	var out bytes.Buffer
	f := &richFormatter{base: base{out: &out, errOut: &bytes.Buffer{}}, profile: termenv.Ascii}

	require.NoError(t, f.PrintResult(sampleResult()))

	s := out.String()
	assert.Contains(t, s, "domain example.com (public)")
	assert.Contains(t, s, "93.184.216.34")
	assert.Contains(t, s, "shodan [config_missing] credential not configured")
	assert.Contains(t, s, "1 fields from 1 providers in 250ms")
}

func TestUnknownModeFallsBackToPlain(t *testing.T) {
	_, ok := NewWithWriters("bogus", &bytes.Buffer{}, &bytes.Buffer{}).(*plainFormatter)
	assert.True(t, ok)
}
