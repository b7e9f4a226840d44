package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fteam&rut=abc">Team</a></div>
<div class="result"><a class="result__a" href="https://forum.example.net/u/alice@example.com">Forum</a></div>
<a href="https://forum.example.net/u/alice@example.com">duplicate</a>
<a href="/relative/link">relative</a>
<a href="mailto:alice@example.com">mail</a>
<a href="https://duckduckgo.com/settings">settings</a>
<img src="https://example.org/pixel.png"/>
</body></html>`

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks(strings.NewReader(resultsPage))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.org/team",
		"https://forum.example.net/u/alice@example.com",
	}, links)
}

func TestSelectMentions(t *testing.T) {
	var links []string
	for i := 0; i < 15; i++ {
		links = append(links, "https://unrelated.example/"+strings.Repeat("x", i+1))
	}
	links = append(links, "https://site.example/alice@example.com")

	got := selectMentions(links, "alice@example.com", 20)
	assert.Len(t, got, looseMentionLimit+1)
	assert.Equal(t, "https://site.example/alice@example.com", got[len(got)-1])

	assert.Len(t, selectMentions(links, "alice@example.com", 3), 3)
}

func TestDuckDuckGoMentions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/html/", r.URL.Path)
		assert.Equal(t, `"alice@example.com"`, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	c, _ := newTestClient(0)
	ddg := &DuckDuckGo{Client: c, BaseURL: srv.URL}
	mentions, err := ddg.Mentions(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, mentions, 2)
}

func TestDuckDuckGoUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := newTestClient(0)
	ddg := &DuckDuckGo{Client: c, BaseURL: srv.URL}
	_, err := ddg.Mentions(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrAuthFailure)
}

func TestDuckDuckGoSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		expected string
	}{
		{name: "default", base: "", expected: "https://html.duckduckgo.com/html/?q=%22alice%40example.com%22+site%3Apastebin.com"},
		{name: "override", base: "http://127.0.0.1:9/", expected: "http://127.0.0.1:9/html/?q=%22alice%40example.com%22+site%3Apastebin.com"},
	}
	q := NewSearchQuery().Exact("alice@example.com").Site("pastebin.com").Build()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &DuckDuckGo{BaseURL: tt.base}
			assert.Equal(t, tt.expected, d.SearchURL(q))
		})
	}
}
