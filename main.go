package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/ethos-finder/ethos/internal/cli"
	"github.com/ethos-finder/ethos/internal/output"
)

var (
	version = "dev"
)

func main() {
	cliInstance := &cli.CLI{}
	parser := kong.Must(cliInstance,
		kong.Name("ethos"),
		kong.Description("OSINT lookups for email addresses, phone numbers, handles and domains"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	// Answers shell completion requests and exits when one is pending
	kongplete.Complete(parser, cli.Predictors()...)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		var cliErr *output.CLIError
		if errors.As(err, &cliErr) {
			os.Exit(output.ExitWithError(output.New("plain"), cliErr))
		}
		parser.Errorf("%s", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(true)
		}
		os.Exit(output.ExitUsage)
	}

	err = ctx.Run()
	cliInstance.Close()
	if err != nil {
		os.Exit(output.ExitWithError(output.New("plain"), err))
	}
}
