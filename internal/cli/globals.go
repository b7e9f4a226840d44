package cli

import (
	"os"

	"golang.org/x/term"
)

// Globals holds global flags available to all commands
type Globals struct {
	Output      string `help:"Output format (default: auto, or default_output from config)" enum:"json,yaml,plain,rich,auto," default:"" short:"o" env:"ETHOS_OUTPUT"`
	Verbose     bool   `help:"Verbose output" short:"v" env:"ETHOS_VERBOSE"`
	ResultsOnly bool   `help:"Strip JSON envelope, return data array only" env:"ETHOS_RESULTS_ONLY"`
	NoInput     bool   `help:"Disable interactive prompts (fail instead)" env:"ETHOS_NO_INPUT"`
	Force       bool   `help:"Skip confirmation prompts for destructive operations" env:"ETHOS_FORCE"`
	VaultDir    string `help:"Vault directory" type:"path" env:"ETHOS_VAULT_DIR"`
	NoHistory   bool   `help:"Do not record searches in history" name:"no-history" env:"ETHOS_NO_HISTORY"`
}

// ResolvedOutput returns the effective output mode. The flag wins over the
// configured default; "auto" picks rich on a TTY and plain otherwise.
func (g *Globals) ResolvedOutput(configured string) string {
	mode := g.Output
	if mode == "" {
		mode = configured
	}
	if mode != "" && mode != "auto" {
		return mode
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "rich"
	}

	return "plain"
}

// Interactive reports whether the user can be prompted.
func (g *Globals) Interactive() bool {
	return !g.NoInput && term.IsTerminal(int(os.Stdin.Fd()))
}
