package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethos-finder/ethos/internal/lookup"
	"github.com/ethos-finder/ethos/internal/output"
	"github.com/ethos-finder/ethos/internal/provider"
	"github.com/ethos-finder/ethos/pkg/browser"
)

// EmailCmd implements email lookup
type EmailCmd struct {
	Address  string `arg:"" help:"Email address"`
	Enhanced bool   `help:"Also query paid providers configured in the vault" short:"e"`
}

// Run executes the email lookup
func (cmd *EmailCmd) Run(sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	_, err := runSearch(sp, fp, globals, lookup.Request{
		Kind:     provider.KindEmail,
		Query:    cmd.Address,
		Enhanced: cmd.Enhanced,
	})
	return err
}

// PhoneCmd implements phone number lookup
type PhoneCmd struct {
	Number   string `arg:"" help:"Phone number, E.164 or national format"`
	Region   string `help:"Region for numbers without a country code (default: fallback_region)" placeholder:"XX" predictor:"region"`
	Enhanced bool   `help:"Also query paid providers configured in the vault" short:"e"`
}

// Run executes the phone lookup
func (cmd *PhoneCmd) Run(sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	_, err := runSearch(sp, fp, globals, lookup.Request{
		Kind:     provider.KindPhone,
		Query:    cmd.Number,
		Region:   cmd.Region,
		Enhanced: cmd.Enhanced,
	})
	return err
}

// HandleCmd implements username lookup
type HandleCmd struct {
	Name     string `arg:"" help:"Username, with or without a leading @"`
	Open     bool   `help:"Open found profiles in the browser"`
	Enhanced bool   `help:"Also query paid providers configured in the vault" short:"e"`
}

// Run executes the handle lookup
func (cmd *HandleCmd) Run(sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	res, err := runSearch(sp, fp, globals, lookup.Request{
		Kind:     provider.KindHandle,
		Query:    cmd.Name,
		Enhanced: cmd.Enhanced,
	})
	if cmd.Open {
		log := sp.Logger()
		for _, u := range foundProfiles(res) {
			if oerr := browser.Open(u); oerr != nil {
				log.Warn().Err(oerr).Str("url", u).Msg("failed to open browser")
			}
		}
	}
	return err
}

// DomainCmd implements domain lookup
type DomainCmd struct {
	Name      string `arg:"" help:"Domain name"`
	Enumerate bool   `help:"Probe common subdomains"`
	Enhanced  bool   `help:"Also query paid providers configured in the vault" short:"e"`
}

// Run executes the domain lookup
func (cmd *DomainCmd) Run(sp *ServiceProvider, fp *FormatterProvider, globals *Globals) error {
	_, err := runSearch(sp, fp, globals, lookup.Request{
		Kind:      provider.KindDomain,
		Query:     cmd.Name,
		Enhanced:  cmd.Enhanced,
		Enumerate: cmd.Enumerate,
	})
	return err
}

// runSearch offers enhancement when it is available, runs the search, records
// it and prints the result.
func runSearch(sp *ServiceProvider, fp *FormatterProvider, globals *Globals, req lookup.Request) (lookup.Result, error) {
	d := sp.Dispatcher()

	if !req.Enhanced && globals.Interactive() && d.EnhancedAvailable(req.Kind) {
		req.Enhanced = confirm(os.Stdin, fmt.Sprintf("Paid providers are configured for %s lookups. Use them?", req.Kind))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := d.Search(ctx, req)

	if cliErr := invalidInput(res); cliErr != nil {
		return res, cliErr
	}

	if sp.RecordsHistory() {
		recordSearch(ctx, sp, res)
	}

	if err := fp.Formatter.PrintResult(res); err != nil {
		return res, err
	}
	return res, searchExit(res)
}

func recordSearch(ctx context.Context, sp *ServiceProvider, res lookup.Result) {
	log := sp.Logger()
	store, err := sp.History()
	if err != nil {
		log.Warn().Err(err).Msg("search not recorded")
		return
	}
	if err := store.Record(ctx, res); err != nil {
		log.Warn().Err(err).Msg("search not recorded")
	}
}

// invalidInput converts a rejected query into a usage error.
func invalidInput(res lookup.Result) *output.CLIError {
	for _, e := range res.Errors {
		if e.Kind == provider.InvalidInput {
			return &output.CLIError{
				ExitCode: output.ExitInvalidInput,
				Message:  e.Message,
			}
		}
	}
	return nil
}

// searchExit fails only when nothing was found and some provider failed.
func searchExit(res lookup.Result) error {
	if len(res.Fields) > 0 || len(res.Errors) == 0 {
		return nil
	}
	first := res.Errors[0]
	cliErr := output.NewCLIError(output.ExitCodeFor(first.Kind), fmt.Sprintf("no results: %s: %s", first.Provider, first.Message))
	if first.Kind == provider.ConfigMissing {
		cliErr.WithHint("Run: ethos vault list")
	}
	return cliErr
}

// foundProfiles returns the URLs of platforms where the handle exists.
func foundProfiles(res lookup.Result) []string {
	var urls []string
	for _, p := range res.Providers() {
		if exists, _ := res.Value(p, "exists"); exists != "true" {
			continue
		}
		if u, ok := res.Value(p, "url"); ok {
			urls = append(urls, u)
		}
	}
	return urls
}
