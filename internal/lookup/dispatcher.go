// Package lookup runs searches: it validates the query, queries free
// providers, optionally enhances the result with paid providers, and merges
// everything into one Result annotated by provider.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ethos-finder/ethos/internal/governor"
	"github.com/ethos-finder/ethos/internal/provider"
	"github.com/ethos-finder/ethos/internal/validate"
)

const (
	// DefaultConcurrency bounds parallel probes and resolutions.
	DefaultConcurrency = 8
	// DefaultRegion is used for phone numbers without a leading '+'.
	DefaultRegion = "US"

	componentValidate   = "validate"
	componentDispatcher = "dispatcher"
	// genericGroup names the generic providers as a whole in errors.
	genericGroup = "rapidapi"
)

// Credentials is the read side of the vault.
type Credentials interface {
	Get(name string) (string, bool)
	Hosts() map[string]string
}

// Options configures a Dispatcher.
type Options struct {
	Client      *provider.Client
	Registry    *provider.Registry
	Credentials Credentials
	Governor    *governor.Governor
	Resolver    provider.Resolver // defaults to net.DefaultResolver

	Concurrency    int
	FallbackRegion string
	Wordlist       []string // subdomain candidates, defaults to DefaultWordlist

	// Endpoint overrides, empty for the public services.
	GenericScheme  string
	DuckDuckGoURL  string
	DNSDumpsterURL string
	ShodanURL      string

	Logger zerolog.Logger
	Now    func() time.Time
}

// Dispatcher executes searches against the provider registry.
type Dispatcher struct {
	registry    *provider.Registry
	creds       Credentials
	concurrency int
	region      string
	wordlist    []string
	log         zerolog.Logger
	now         func() time.Time

	client      *provider.Client
	generic     *provider.GenericAPI
	duckduckgo  *provider.DuckDuckGo
	dnsdumpster *provider.DNSDumpster
	shodan      *provider.Shodan
	dns         *provider.PublicDNS
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	registry := opts.Registry
	if registry == nil {
		registry = provider.NewRegistry(provider.Platforms)
	}
	client := opts.Client
	if client == nil {
		client = provider.NewClient(provider.ClientOptions{Governor: opts.Governor, Logger: opts.Logger})
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	region := strings.ToUpper(opts.FallbackRegion)
	if region == "" {
		region = DefaultRegion
	}
	wordlist := opts.Wordlist
	if len(wordlist) == 0 {
		wordlist = DefaultWordlist
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		registry:    registry,
		creds:       opts.Credentials,
		concurrency: concurrency,
		region:      region,
		wordlist:    wordlist,
		log:         opts.Logger,
		now:         now,
		client:      client,
		generic:     &provider.GenericAPI{Client: client, Scheme: opts.GenericScheme},
		duckduckgo:  &provider.DuckDuckGo{Client: client, BaseURL: opts.DuckDuckGoURL},
		dnsdumpster: &provider.DNSDumpster{Client: client, BaseURL: opts.DNSDumpsterURL},
		shodan:      &provider.Shodan{Client: client, BaseURL: opts.ShodanURL},
		dns:         &provider.PublicDNS{Resolver: opts.Resolver, Governor: opts.Governor},
	}
}

// Request is one search.
type Request struct {
	Kind      provider.Kind
	Query     string
	Enhanced  bool   // also query paid providers
	Enumerate bool   // domain only: probe common subdomains
	Region    string // phone only: region for numbers without '+'
}

// Search runs req to completion and returns the merged result. It never
// returns an error: every failure is recorded in Result.Errors.
func (d *Dispatcher) Search(ctx context.Context, req Request) Result {
	started := d.now()
	res := Result{
		ID:        uuid.New(),
		Query:     req.Query,
		Kind:      req.Kind,
		StartedAt: started,
	}
	col := &collector{}
	log := d.log.With().Str("search", res.ID.String()).Str("kind", string(req.Kind)).Logger()

	finish := func(stage Stage) Result {
		res.Fields, res.Errors = col.snapshot()
		res.Duration = d.now().Sub(started)
		log.Debug().Stringer("stage", stage).Int("fields", len(res.Fields)).Int("errors", len(res.Errors)).Dur("took", res.Duration).Msg("search finished")
		return res
	}

	log.Debug().Stringer("stage", StageValidating).Msg("search started")
	query := strings.TrimSpace(req.Query)
	if !validate.Query(req.Kind, query) {
		col.fail(componentValidate, provider.NewError(componentValidate, provider.InvalidInput, fmt.Errorf("not a valid %s: %q", req.Kind, query)))
		return finish(StageValidating)
	}
	switch req.Kind {
	case provider.KindHandle:
		query = validate.NormalizeHandle(query)
	case provider.KindDomain:
		query = strings.ToLower(query)
	}
	res.Query = query

	log.Debug().Stringer("stage", StageFreeTier).Msg("querying free providers")
	var (
		ips   []string
		paidQ = query
	)
	switch req.Kind {
	case provider.KindEmail:
		d.freeEmail(ctx, query, col)
		res.Method = MethodPublic
	case provider.KindPhone:
		if e164, ok := d.freePhone(query, req.Region, col); ok {
			paidQ = e164
		}
		res.Method = MethodPublic
	case provider.KindHandle:
		d.freeHandle(ctx, query, col)
		res.Method = MethodPublic
	case provider.KindDomain:
		res.Method, ips = d.freeDomain(ctx, query, col)
	}

	if req.Enhanced {
		log.Debug().Stringer("stage", StagePaidTier).Msg("querying paid providers")
		if d.paid(ctx, req.Kind, paidQ, ips, col) && res.Method == MethodPublic && req.Kind != provider.KindDomain {
			res.Method = MethodPublicAPI
		}
	}

	if req.Enumerate && req.Kind == provider.KindDomain {
		log.Debug().Stringer("stage", StageSubEnumeration).Msg("enumerating subdomains")
		d.enumerate(ctx, query, col)
		return finish(StageSubEnumeration)
	}
	return finish(StageMerged)
}

// paidTarget is one paid provider with its credential.
type paidTarget struct {
	desc   provider.Descriptor
	secret string
}

// paidTargets lists paid providers usable for kind, those without a
// credential excluded.
func (d *Dispatcher) paidTargets(kind provider.Kind) []paidTarget {
	if d.creds == nil {
		return nil
	}
	var out []paidTarget

	if kind == provider.KindDomain {
		// DNSDumpster already served the free stage when configured.
		for _, desc := range d.registry.For(kind, provider.TierPaid) {
			if desc.Name == provider.NameDNSDumpster {
				continue
			}
			if secret, ok := d.creds.Get(desc.Credential); ok {
				out = append(out, paidTarget{desc: desc, secret: secret})
			}
		}
		return out
	}

	hosts := d.creds.Hosts()
	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		desc := provider.Generic(name, hosts[name])
		if !desc.Supports(kind) {
			continue
		}
		if secret, ok := d.creds.Get(name); ok {
			out = append(out, paidTarget{desc: desc, secret: secret})
		}
	}
	return out
}

// EnhancedAvailable reports whether a paid provider with a credential can
// serve kind.
func (d *Dispatcher) EnhancedAvailable(kind provider.Kind) bool {
	return len(d.paidTargets(kind)) > 0
}

// paid runs the paid tier and reports whether any provider contributed.
func (d *Dispatcher) paid(ctx context.Context, kind provider.Kind, query string, ips []string, col *collector) bool {
	targets := d.paidTargets(kind)
	if len(targets) == 0 {
		group := genericGroup
		if kind == provider.KindDomain {
			group = provider.NameShodan
		}
		col.fail(group, provider.NewError(group, provider.ConfigMissing, fmt.Errorf("no credential for an enhanced %s lookup", kind)))
		return false
	}

	if kind == provider.KindDomain {
		contributed := false
		for _, t := range targets {
			if err := provider.Check(t.desc, kind); err != nil {
				d.log.Debug().Err(err).Msg("skipping provider")
				continue
			}
			if t.desc.Name == provider.NameShodan && d.shodanDomain(ctx, query, ips, t.secret, col) {
				contributed = true
			}
		}
		return contributed
	}
	return d.genericAll(ctx, targets, kind, query, col)
}

func (d *Dispatcher) cancelled(ctx context.Context, col *collector) bool {
	if err := ctx.Err(); err != nil {
		col.fail(componentDispatcher, provider.NewError(componentDispatcher, provider.ProviderUnavailable, fmt.Errorf("search interrupted: %w", err)))
		return true
	}
	return false
}
