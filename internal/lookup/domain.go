package lookup

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ethos-finder/ethos/internal/provider"
)

// maxShodanHosts caps per-IP host lookups to spare query credits.
const maxShodanHosts = 5

// freeDomain uses DNSDumpster when a key is configured and falls back to the
// public resolver otherwise or on failure. It returns the method tag and the
// IPv4 addresses found.
func (d *Dispatcher) freeDomain(ctx context.Context, domain string, col *collector) (string, []string) {
	method := MethodPublic

	if d.creds != nil {
		if secret, ok := d.creds.Get(provider.NameDNSDumpster); ok {
			resp, err := d.dnsdumpster.Search(ctx, domain, secret)
			if err == nil {
				col.addAll(flatten(provider.NameDNSDumpster, resp))
				return MethodAPI, provider.CollectIPv4(resp)
			}
			col.fail(provider.NameDNSDumpster, err)
			method = MethodPublicFallback
		}
	}

	recs, err := d.dns.Lookup(ctx, domain)
	if err != nil {
		col.fail(provider.NamePublicDNS, err)
		return method, nil
	}

	const p = provider.NamePublicDNS
	var ips []string
	for _, addr := range recs.Addresses {
		col.add(p, "ip_address", addr)
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			ips = append(ips, addr)
		}
	}
	for _, mx := range recs.MX {
		col.add(p, "mx", mx)
	}
	for _, ns := range recs.NS {
		col.add(p, "ns", ns)
	}
	for _, txt := range recs.TXT {
		col.add(p, "txt", txt)
	}
	return method, ips
}

// shodanDomain adds Shodan's DNS data and host details for up to five
// addresses. Authentication and quota failures stop further calls.
func (d *Dispatcher) shodanDomain(ctx context.Context, domain string, ips []string, secret string, col *collector) bool {
	const p = provider.NameShodan
	contributed := false

	dom, err := d.shodan.Domain(ctx, domain, secret)
	if err != nil {
		col.fail(p, err)
		if k := provider.KindOf(err); k == provider.AuthFailure || k == provider.RateLimited {
			return false
		}
	} else {
		contributed = true
		for _, sub := range dom.Subdomains {
			col.add(p, "subdomain", sub+"."+domain)
		}
		for _, tag := range dom.Tags {
			col.add(p, "tag", tag)
		}
		for _, r := range dom.Records {
			name := domain
			if r.Subdomain != "" {
				name = r.Subdomain + "." + domain
			}
			col.add(p, "record", fmt.Sprintf("%s %s %s", name, r.Type, r.Value))
		}
	}

	if len(ips) > maxShodanHosts {
		ips = ips[:maxShodanHosts]
	}
	for _, ip := range ips {
		if d.cancelled(ctx, col) {
			break
		}
		host, err := d.shodan.Host(ctx, ip, secret)
		if err != nil {
			col.fail(p, err)
			if k := provider.KindOf(err); k == provider.AuthFailure || k == provider.RateLimited {
				break
			}
			continue
		}
		contributed = true
		col.addAll(hostFields(ip, host))
	}
	return contributed
}

func hostFields(ip string, h *provider.ShodanHost) []Field {
	const p = provider.NameShodan
	prefix := "host." + ip + "."
	var fields []Field
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, Field{Provider: p, Name: prefix + name, Value: value})
		}
	}

	add("org", h.Org)
	add("isp", h.ISP)
	add("asn", h.ASN)
	add("country", h.Country)
	add("city", h.City)
	add("hostnames", strings.Join(h.Hostnames, ","))
	ports := make([]string, len(h.Ports))
	for i, port := range h.Ports {
		ports[i] = strconv.Itoa(port)
	}
	add("ports", strings.Join(ports, ","))
	add("vulns", strings.Join(h.Vulns, ","))
	add("last_update", h.LastUpdate)
	for _, s := range h.Services {
		svc := strings.TrimSpace(fmt.Sprintf("%d/%s %s %s", s.Port, s.Transport, s.Product, s.Version))
		add("service", svc)
	}
	return fields
}
