package lookup

import (
	"context"

	"github.com/ethos-finder/ethos/internal/provider"
)

// freeEmail scrapes web mentions and adds the social and per-site search
// links. The links are search pages and say nothing about whether an account
// exists.
func (d *Dispatcher) freeEmail(ctx context.Context, email string, col *collector) {
	for _, p := range provider.SocialSearch {
		col.add(p.Name, "search_url", p.QueryURL(email))
	}
	for _, site := range provider.DorkSites {
		q := provider.NewSearchQuery().Exact(email).Site(site).Build()
		col.add(provider.NameDuckDuckGo, "site_search_url", d.duckduckgo.SearchURL(q))
	}

	desc, err := d.registry.Lookup(provider.NameDuckDuckGo)
	if err != nil || provider.Check(desc, provider.KindEmail) != nil {
		return
	}
	mentions, err := d.duckduckgo.Mentions(ctx, email)
	if err != nil {
		col.fail(provider.NameDuckDuckGo, err)
		return
	}
	for _, m := range mentions {
		col.add(provider.NameDuckDuckGo, "mention", m)
	}
}
