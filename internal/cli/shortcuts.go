package cli

import (
	"github.com/ethos-finder/ethos/internal/output"
	"github.com/ethos-finder/ethos/internal/provider"
)

// LsCmd provides desire-path shortcuts for listing things
// These are aliases to full command paths for faster interactive use
type LsCmd struct {
	Providers LsProvidersCmd `cmd:"" help:"List built-in providers and platforms"`
	Vault     VaultListCmd   `cmd:"" help:"List stored credentials (shortcut for vault list)"`
	History   HistoryListCmd `cmd:"" help:"List recent searches (shortcut for history list)"`
}

// providerRow is one line of ls providers
type providerRow struct {
	Name  string `json:"name" yaml:"name"`
	Tier  string `json:"tier" yaml:"tier"`
	Kinds string `json:"kinds" yaml:"kinds"`
	Auth  string `json:"auth" yaml:"auth"`
	Host  string `json:"host" yaml:"host"`
}

func providerRows(r *provider.Registry) []providerRow {
	names := r.Names()
	rows := make([]providerRow, 0, len(names))
	for _, name := range names {
		d, err := r.Lookup(name)
		if err != nil {
			continue
		}
		rows = append(rows, providerRow{
			Name:  d.Name,
			Tier:  d.Tier.String(),
			Kinds: d.Capabilities.String(),
			Auth:  d.Auth.String(),
			Host:  d.Host,
		})
	}
	return rows
}

// LsProvidersCmd implements ls providers
type LsProvidersCmd struct{}

// Run executes the providers listing
func (cmd *LsProvidersCmd) Run(fp *FormatterProvider) error {
	cols := []output.Column{
		{Name: "Name", Key: "Name"},
		{Name: "Tier", Key: "Tier"},
		{Name: "Kinds", Key: "Kinds"},
		{Name: "Auth", Key: "Auth"},
		{Name: "Host", Key: "Host", Width: 40},
	}
	return fp.Formatter.PrintList(providerRows(provider.NewRegistry(provider.Platforms)), cols)
}
