package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

const defaultShodanURL = "https://api.shodan.io"

// Shodan queries the Shodan REST API.
type Shodan struct {
	Client  *Client
	BaseURL string
}

// ShodanDomain is the response of /dns/domain/{domain}.
type ShodanDomain struct {
	Domain     string         `json:"domain"`
	Subdomains []string       `json:"subdomains"`
	Tags       []string       `json:"tags"`
	Records    []ShodanRecord `json:"data"`
}

// ShodanRecord is one DNS record known to Shodan.
type ShodanRecord struct {
	Subdomain string `json:"subdomain"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	LastSeen  string `json:"last_seen"`
}

// ShodanHost is the response of /shodan/host/{ip}.
type ShodanHost struct {
	IP         string          `json:"ip_str"`
	Org        string          `json:"org"`
	ISP        string          `json:"isp"`
	ASN        string          `json:"asn"`
	Country    string          `json:"country_name"`
	City       string          `json:"city"`
	Hostnames  []string        `json:"hostnames"`
	Domains    []string        `json:"domains"`
	Ports      []int           `json:"ports"`
	Vulns      ShodanVulns     `json:"vulns"`
	Tags       []string        `json:"tags"`
	LastUpdate string          `json:"last_update"`
	Services   []ShodanService `json:"data"`
}

// ShodanService is one banner on a host.
type ShodanService struct {
	Port      int    `json:"port"`
	Transport string `json:"transport"`
	Product   string `json:"product"`
	Version   string `json:"version"`
	Banner    string `json:"data"`
}

// ShodanVulns accepts both the list and the keyed-object forms of the vulns field.
type ShodanVulns []string

func (v *ShodanVulns) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = list
		return nil
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("vulns: %w", err)
	}
	out := make([]string, 0, len(keyed))
	for k := range keyed {
		out = append(out, k)
	}
	sort.Strings(out)
	*v = out
	return nil
}

// ShodanAccount is the response of /api-info.
type ShodanAccount struct {
	Plan         string `json:"plan" yaml:"plan"`
	QueryCredits int    `json:"query_credits" yaml:"query_credits"`
	ScanCredits  int    `json:"scan_credits" yaml:"scan_credits"`
	MonitoredIPs int    `json:"monitored_ips" yaml:"monitored_ips"`
	Unlocked     bool   `json:"unlocked" yaml:"unlocked"`
	UnlockedLeft int    `json:"unlocked_left" yaml:"unlocked_left"`
}

func (s *Shodan) call(ctx context.Context, path, secret string, out any) error {
	base := s.BaseURL
	if base == "" {
		base = defaultShodanURL
	}
	desc, _ := builtin(NameShodan)
	return s.Client.JSON(ctx, Call{
		Provider:   desc,
		URL:        strings.TrimRight(base, "/") + path,
		Credential: secret,
	}, out)
}

// Domain returns Shodan's DNS view of a domain.
func (s *Shodan) Domain(ctx context.Context, domain, secret string) (*ShodanDomain, error) {
	var out ShodanDomain
	if err := s.call(ctx, "/dns/domain/"+url.PathEscape(domain), secret, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Host returns what Shodan knows about an IPv4 address.
func (s *Shodan) Host(ctx context.Context, ip, secret string) (*ShodanHost, error) {
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		return nil, NewError(NameShodan, InvalidInput, fmt.Errorf("not an IPv4 address: %q", ip))
	}
	var out ShodanHost
	if err := s.call(ctx, "/shodan/host/"+ip, secret, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// APIInfo returns the account plan and remaining credits.
func (s *Shodan) APIInfo(ctx context.Context, secret string) (*ShodanAccount, error) {
	var out ShodanAccount
	if err := s.call(ctx, "/api-info", secret, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
