package provider

import (
	"fmt"
	"sort"
	"time"
)

// Names of the built-in providers.
const (
	NameDNSDumpster  = "dnsdumpster"
	NameShodan       = "shodan"
	NamePublicDNS    = "public-dns"
	NameDuckDuckGo   = "duckduckgo"
	NamePhoneNumbers = "phonenumbers"
	NameEnumeration  = "enumeration"
)

// Descriptor is the static connection metadata of one provider.
type Descriptor struct {
	Name         string
	Host         string
	Auth         AuthStyle
	Tier         Tier
	Capabilities KindSet
	Credential   string // vault name holding the secret, empty for free providers
	Class        string // rate governor class, defaults to Name
	Timeout      time.Duration
	Endpoints    map[Kind]string // path templates for generic query providers
}

// Supports reports whether the provider may be dispatched for kind.
func (d Descriptor) Supports(k Kind) bool {
	return d.Capabilities.Has(k)
}

// RateClass returns the governor class for the provider.
func (d Descriptor) RateClass() string {
	if d.Class != "" {
		return d.Class
	}
	return d.Name
}

// Builtin holds the hardcoded providers.
var Builtin = []Descriptor{
	{
		Name:         NameDNSDumpster,
		Host:         "api.dnsdumpster.com",
		Auth:         AuthBearer,
		Tier:         TierPaid,
		Capabilities: NewKindSet(KindDomain),
		Credential:   NameDNSDumpster,
		Timeout:      15 * time.Second,
	},
	{
		Name:         NameShodan,
		Host:         "api.shodan.io",
		Auth:         AuthQueryParam,
		Tier:         TierPaid,
		Capabilities: NewKindSet(KindDomain),
		Credential:   NameShodan,
		Timeout:      15 * time.Second,
	},
	{
		Name:         NamePublicDNS,
		Auth:         AuthNone,
		Tier:         TierFree,
		Capabilities: NewKindSet(KindDomain),
		Timeout:      5 * time.Second,
	},
	{
		Name:         NameDuckDuckGo,
		Host:         "html.duckduckgo.com",
		Auth:         AuthNone,
		Tier:         TierFree,
		Capabilities: NewKindSet(KindEmail),
		Timeout:      10 * time.Second,
	},
	{
		Name:         NamePhoneNumbers,
		Auth:         AuthNone,
		Tier:         TierFree,
		Capabilities: NewKindSet(KindPhone),
	},
}

// genericEndpoints are the RapidAPI-style paths per kind.
var genericEndpoints = map[Kind]string{
	KindEmail:  "verifier?email={query}",
	KindPhone:  "phone-lookup?number={query}",
	KindHandle: "handle-search?username={query}",
}

// Generic describes a user-configured query provider reachable at host.
// Its secret is the vault's shared provider key.
func Generic(name, host string) Descriptor {
	return Descriptor{
		Name:         name,
		Host:         host,
		Auth:         AuthHeader,
		Tier:         TierPaid,
		Capabilities: NewKindSet(KindEmail, KindPhone, KindHandle),
		Credential:   name,
		Class:        "generic:" + name,
		Timeout:      10 * time.Second,
		Endpoints:    genericEndpoints,
	}
}

// Registry is the load-time provider table.
type Registry struct {
	byName    map[string]Descriptor
	order     []string
	platforms map[string]Platform
}

// NewRegistry builds a registry from the built-ins plus one entry per platform.
func NewRegistry(platforms []Platform) *Registry {
	r := &Registry{
		byName:    make(map[string]Descriptor),
		platforms: make(map[string]Platform),
	}
	for _, d := range Builtin {
		r.add(d)
	}
	for _, p := range platforms {
		r.add(p.Descriptor())
		r.platforms[p.Name] = p
	}
	return r
}

// Platform returns the URL template registered under name.
func (r *Registry) Platform(name string) (Platform, bool) {
	p, ok := r.platforms[name]
	return p, ok
}

func (r *Registry) add(d Descriptor) {
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown provider: %s", name)
	}
	return d, nil
}

// For returns the providers of a tier that support kind, in registration order.
func (r *Registry) For(kind Kind, tier Tier) []Descriptor {
	var out []Descriptor
	for _, name := range r.order {
		d := r.byName[name]
		if d.Tier == tier && d.Supports(kind) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns all registered provider names sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Check returns an error when kind is outside the provider's capability set.
func Check(d Descriptor, kind Kind) error {
	if !d.Supports(kind) {
		return fmt.Errorf("provider %s does not support %s lookups (capabilities: %s)", d.Name, kind, d.Capabilities)
	}
	return nil
}

func builtin(name string) (Descriptor, bool) {
	for _, d := range Builtin {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
