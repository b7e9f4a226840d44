package provider

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/ethos-finder/ethos/internal/governor"
)

// Resolver is the subset of *net.Resolver used for public DNS lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSRecords is what the public resolver reports for a domain.
type DNSRecords struct {
	Addresses []string
	MX        []string
	NS        []string
	TXT       []string
}

// PublicDNS looks domains up through the system resolver.
type PublicDNS struct {
	Resolver Resolver // defaults to net.DefaultResolver
	Governor *governor.Governor
}

func (p *PublicDNS) resolver() Resolver {
	if p.Resolver == nil {
		return net.DefaultResolver
	}
	return p.Resolver
}

// Lookup resolves domain. Only a failed address lookup is an error; missing
// MX, NS or TXT records leave those lists empty.
func (p *PublicDNS) Lookup(ctx context.Context, domain string) (DNSRecords, error) {
	desc, _ := builtin(NamePublicDNS)
	if err := p.Governor.Wait(ctx, desc.RateClass()); err != nil {
		return DNSRecords{}, NewError(desc.Name, ProviderUnavailable, err)
	}
	ctx, cancel := requestContext(ctx, desc.Timeout)
	defer cancel()

	r := p.resolver()
	var recs DNSRecords

	addrs, err := r.LookupHost(ctx, domain)
	if err != nil {
		return recs, NewError(desc.Name, ProviderUnavailable, fmt.Errorf("resolve %s: %w", domain, err))
	}
	recs.Addresses = addrs

	if mxs, err := r.LookupMX(ctx, domain); err == nil {
		for _, mx := range mxs {
			recs.MX = append(recs.MX, fmt.Sprintf("%d %s", mx.Pref, strings.TrimSuffix(mx.Host, ".")))
		}
	}
	if nss, err := r.LookupNS(ctx, domain); err == nil {
		for _, ns := range nss {
			recs.NS = append(recs.NS, strings.TrimSuffix(ns.Host, "."))
		}
		sort.Strings(recs.NS)
	}
	if txts, err := r.LookupTXT(ctx, domain); err == nil {
		recs.TXT = txts
	}
	return recs, nil
}

// Exists reports whether host resolves to at least one address.
func (p *PublicDNS) Exists(ctx context.Context, host string) bool {
	desc, _ := builtin(NamePublicDNS)
	ctx, cancel := requestContext(ctx, desc.Timeout)
	defer cancel()
	addrs, err := p.resolver().LookupHost(ctx, host)
	return err == nil && len(addrs) > 0
}
