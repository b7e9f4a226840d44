package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultDuckDuckGoURL = "https://html.duckduckgo.com"
	defaultMentionLimit  = 20
	// unrelated links kept before only links containing the term are accepted
	looseMentionLimit = 10
)

// DuckDuckGo scrapes the HTML search endpoint for pages mentioning a term.
type DuckDuckGo struct {
	Client  *Client
	BaseURL string
	Limit   int
}

func (d *DuckDuckGo) baseURL() string {
	if d.BaseURL == "" {
		return defaultDuckDuckGoURL
	}
	return strings.TrimRight(d.BaseURL, "/")
}

// SearchURL returns a browsable results page for q. Nothing is fetched.
func (d *DuckDuckGo) SearchURL(q string) string {
	return d.baseURL() + "/html/?" + url.Values{"q": {q}}.Encode()
}

// Mentions searches for the exact term and returns at most Limit result links.
func (d *DuckDuckGo) Mentions(ctx context.Context, term string) ([]string, error) {
	limit := d.Limit
	if limit <= 0 {
		limit = defaultMentionLimit
	}

	desc, _ := builtin(NameDuckDuckGo)
	q := NewSearchQuery().Exact(term).Build()
	body, err := d.Client.Fetch(ctx, Call{
		Provider: desc,
		Method:   http.MethodPost,
		URL:      d.baseURL() + "/html/",
		Query:    url.Values{"q": {q}},
	})
	if err != nil {
		return nil, err
	}

	links, err := ExtractLinks(bytes.NewReader(body))
	if err != nil {
		return nil, NewError(desc.Name, ProviderUnavailable, err)
	}
	return selectMentions(links, term, limit), nil
}

// ExtractLinks returns the distinct absolute http(s) targets of anchors in an
// HTML document, in document order. DuckDuckGo redirect links are unwrapped.
func ExtractLinks(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	seen := make(map[string]bool)
	var links []string

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return links, err
			}
			return links, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.A {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" {
					continue
				}
				link, ok := normalizeLink(attr.Val)
				if ok && !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			}
		}
	}
}

func normalizeLink(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		target := u.Query().Get("uddg")
		if target == "" {
			return "", false
		}
		return normalizeLink(target)
	}
	return u.String(), true
}

// selectMentions keeps the first few links unconditionally and afterwards only
// links that contain the term itself.
func selectMentions(links []string, term string, limit int) []string {
	var out []string
	for _, link := range links {
		if len(out) >= limit {
			break
		}
		if len(out) < looseMentionLimit || strings.Contains(link, term) {
			out = append(out, link)
		}
	}
	return out
}
