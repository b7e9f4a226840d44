package cli

import (
	"fmt"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/nyaruka/phonenumbers"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/ethos-finder/ethos/internal/config"
	"github.com/ethos-finder/ethos/internal/logging"
	"github.com/ethos-finder/ethos/internal/output"
	"github.com/ethos-finder/ethos/internal/vault"
)

// FormatterProvider wraps the formatter interface for Kong binding
type FormatterProvider struct {
	Formatter output.Formatter
	Mode      string
}

// Structured reports whether output is machine readable.
func (fp *FormatterProvider) Structured() bool {
	return fp.Mode == "json" || fp.Mode == "yaml"
}

// CLI is the root command structure
type CLI struct {
	Globals

	Email   EmailCmd   `cmd:"" help:"Look up an email address"`
	Phone   PhoneCmd   `cmd:"" help:"Look up a phone number"`
	Handle  HandleCmd  `cmd:"" help:"Look up a username across social platforms"`
	Domain  DomainCmd  `cmd:"" help:"Look up a domain"`
	Vault   VaultCmd   `cmd:"" help:"Manage provider credentials"`
	Config  ConfigCmd  `cmd:"" help:"Configuration commands"`
	History HistoryCmd `cmd:"" help:"Past searches"`
	Ls      LsCmd      `cmd:"" help:"Listing shortcuts"`
	Schema  SchemaCmd  `cmd:"" help:"Print the command tree as JSON or YAML"`

	Completion kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
	Version    VersionCmd                   `cmd:"" help:"Show version information"`

	services *ServiceProvider
}

// AfterApply loads config, builds the logger, formatter and services, and
// binds them for the command's Run method.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return &output.CLIError{
			ExitCode: output.ExitConfigError,
			Message:  err.Error(),
			Hint:     "Run: ethos config path",
		}
	}

	log := logging.New(logging.Config{Verbose: c.Verbose})

	mode := c.ResolvedOutput(cfg.DefaultOutput)
	formatter := output.New(mode)
	if mode == "json" && c.ResultsOnly {
		formatter = output.NewJSON(true)
	}

	c.services = NewServiceProvider(cfg, &c.Globals, log)

	ctx.Bind(cfg)
	ctx.Bind(&FormatterProvider{Formatter: formatter, Mode: mode})
	ctx.Bind(&c.Globals)
	ctx.Bind(c.services)

	return nil
}

// Close releases resources opened by the command.
func (c *CLI) Close() error {
	if c.services == nil {
		return nil
	}
	return c.services.Close()
}

// Predictors returns the argument completers referenced by predictor tags.
func Predictors() []kongplete.Option {
	regions := make([]string, 0, len(phonenumbers.GetSupportedRegions()))
	for r := range phonenumbers.GetSupportedRegions() {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	return []kongplete.Option{
		kongplete.WithPredictor("service", complete.PredictSet(vault.Services...)),
		kongplete.WithPredictor("config_key", complete.PredictSet(config.Keys()...)),
		kongplete.WithPredictor("region", complete.PredictSet(regions...)),
	}
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context) error {
	fmt.Fprintf(ctx.Stdout, "ethos version %s\n", ctx.Model.Vars()["version"])
	return nil
}
