package lookup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ethos-finder/ethos/internal/provider"
)

// DefaultWordlist holds common subdomain labels.
var DefaultWordlist = []string{
	"www", "mail", "ftp", "localhost", "webmail", "smtp",
	"pop", "ns1", "webdisk", "ns2", "cpanel", "whm",
	"autodiscover", "autoconfig", "m", "imap", "test",
	"ns", "blog", "pop3", "dev", "www2", "admin",
	"forum", "news", "vpn", "ns3", "mail2", "new",
	"mysql", "old", "lists", "support", "mobile", "mx",
	"static", "docs", "beta", "shop", "sql", "secure",
}

// enumerate resolves <word>.<domain> for every word and records live names in
// wordlist order. Resolution goes to the local resolver, not a provider API,
// so it is bounded by concurrency only.
func (d *Dispatcher) enumerate(ctx context.Context, domain string, col *collector) {
	found := make([]bool, len(d.wordlist))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, word := range d.wordlist {
		if d.cancelled(ctx, col) {
			break
		}
		g.Go(func() error {
			found[i] = d.dns.Exists(ctx, word+"."+domain)
			return nil
		})
	}
	_ = g.Wait()

	for i, word := range d.wordlist {
		if found[i] {
			col.add(provider.NameEnumeration, "subdomain", word+"."+domain)
		}
	}
}
