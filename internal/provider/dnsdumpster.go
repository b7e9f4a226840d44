package provider

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strings"
)

const defaultDNSDumpsterURL = "https://api.dnsdumpster.com"

// DNSDumpster queries the DNSDumpster search API.
type DNSDumpster struct {
	Client  *Client
	BaseURL string
}

// Search returns the decoded response object for domain.
func (d *DNSDumpster) Search(ctx context.Context, domain, secret string) (map[string]any, error) {
	base := d.BaseURL
	if base == "" {
		base = defaultDNSDumpsterURL
	}
	desc, _ := builtin(NameDNSDumpster)

	out := map[string]any{}
	err := d.Client.JSON(ctx, Call{
		Provider:   desc,
		Method:     http.MethodPost,
		URL:        strings.TrimRight(base, "/") + "/v1/search",
		Body:       map[string]string{"domain": domain},
		Credential: secret,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CollectIPv4 walks decoded JSON and returns every distinct string that is an
// IPv4 address, sorted.
func CollectIPv4(v any) []string {
	seen := make(map[string]bool)
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			if ip := net.ParseIP(t); ip != nil && ip.To4() != nil && strings.Contains(t, ".") {
				seen[t] = true
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	walk(v)

	ips := make([]string, 0, len(seen))
	for ip := range seen {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}
