package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethos-finder/ethos/internal/output"
	"github.com/ethos-finder/ethos/internal/provider"
	"github.com/ethos-finder/ethos/internal/vault"
)

// VaultCmd holds vault subcommands
type VaultCmd struct {
	Set    VaultSetCmd    `cmd:"" help:"Store a query provider (host plus the shared provider key)"`
	SetKey VaultSetKeyCmd `cmd:"" name:"set-key" help:"Store the API key of a built-in service"`
	Remove VaultRemoveCmd `cmd:"" help:"Remove a query provider or clear a service key"`
	List   VaultListCmd   `cmd:"" help:"List configured providers and keys"`
	Get    VaultGetCmd    `cmd:"" help:"Show one stored credential"`
	Reset  VaultResetCmd  `cmd:"" help:"Delete the vault"`
	Path   VaultPathCmd   `cmd:"" help:"Show vault file path"`
	Check  VaultCheckCmd  `cmd:"" help:"Verify a service key against its API"`
}

// secretFromFlagOrPrompt returns the flag value, prompting without echo when
// it is empty and the session is interactive.
func secretFromFlagOrPrompt(flag, label string, globals *Globals) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if !globals.Interactive() {
		return "", &output.CLIError{
			ExitCode: output.ExitUsage,
			Message:  "secret required",
			Hint:     "Pass --secret or run in a terminal to be prompted",
		}
	}
	return readSecret(label)
}

func vaultError(err error) error {
	if errors.Is(err, vault.ErrNotFound) {
		return &output.CLIError{
			ExitCode: output.ExitNotFound,
			Message:  err.Error(),
			Hint:     "Run: ethos vault list",
		}
	}
	cliErr := output.FromError(err)
	if errors.Is(err, vault.ErrEncryptionUnavailable) {
		cliErr.WithHint("Run: ethos config set allow_plaintext true (stores secrets unencrypted)")
	}
	return cliErr
}

// VaultSetCmd implements vault set
type VaultSetCmd struct {
	Name   string `arg:"" help:"Provider name"`
	Host   string `arg:"" help:"API host, e.g. instagram-scraper.p.rapidapi.com"`
	Secret string `help:"Provider key (prompted when omitted)"`
}

// Run executes the set command
func (cmd *VaultSetCmd) Run(sp *ServiceProvider, globals *Globals) error {
	secret, err := secretFromFlagOrPrompt(cmd.Secret, "Provider key", globals)
	if err != nil {
		return err
	}
	if err := sp.Vault().Set(cmd.Name, cmd.Host, secret); err != nil {
		return vaultError(err)
	}

	fmt.Fprintf(os.Stderr, "Stored %s (%s)\n", cmd.Name, cmd.Host)
	return nil
}

// VaultSetKeyCmd implements vault set-key
type VaultSetKeyCmd struct {
	Service string `arg:"" help:"Service name" enum:"dnsdumpster,shodan" predictor:"service"`
	Secret  string `help:"API key (prompted when omitted)"`
}

// Run executes the set-key command
func (cmd *VaultSetKeyCmd) Run(sp *ServiceProvider, globals *Globals) error {
	secret, err := secretFromFlagOrPrompt(cmd.Secret, cmd.Service+" API key", globals)
	if err != nil {
		return err
	}
	if err := sp.Vault().SetServiceKey(cmd.Service, secret); err != nil {
		return vaultError(err)
	}

	fmt.Fprintf(os.Stderr, "Stored %s key\n", cmd.Service)
	return nil
}

// VaultRemoveCmd implements vault remove
type VaultRemoveCmd struct {
	Name string `arg:"" help:"Provider or service name"`
}

// Run executes the remove command
func (cmd *VaultRemoveCmd) Run(sp *ServiceProvider) error {
	if err := sp.Vault().Remove(cmd.Name); err != nil {
		return vaultError(err)
	}

	fmt.Fprintf(os.Stderr, "Removed %s\n", cmd.Name)
	return nil
}

// vaultRow is one line of vault list output
type vaultRow struct {
	Name   string
	Type   string
	Host   string
	Status string
}

func vaultRows(l vault.Listing) []vaultRow {
	rows := make([]vaultRow, 0, len(l.Providers)+len(l.Secrets))
	for _, p := range l.Providers {
		rows = append(rows, vaultRow{Name: p.Name, Type: "provider", Host: p.Host})
	}
	for _, s := range l.Secrets {
		status := "not set"
		switch {
		case s.FromEnv:
			status = "from " + s.EnvVar
		case s.Configured:
			status = "configured"
		}
		rows = append(rows, vaultRow{Name: s.Name, Type: "key", Status: status})
	}
	return rows
}

// VaultListCmd implements vault list
type VaultListCmd struct{}

// Run executes the list command
func (cmd *VaultListCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	listing := sp.Vault().List()
	if fp.Structured() {
		return fp.Formatter.Print(listing)
	}

	cols := []output.Column{
		{Name: "Name", Key: "Name"},
		{Name: "Type", Key: "Type"},
		{Name: "Host", Key: "Host", Width: 48},
		{Name: "Status", Key: "Status"},
	}
	if err := fp.Formatter.PrintList(vaultRows(listing), cols); err != nil {
		return err
	}

	if !listing.Encrypted {
		fp.Formatter.PrintHint("no vault key yet, one is created on the next write (" + listing.KeySource + ")")
	}
	return nil
}

// VaultGetCmd implements vault get
type VaultGetCmd struct {
	Name   string `arg:"" help:"Provider or service name"`
	Reveal bool   `help:"Print the secret in clear"`
}

// credentialView is the output of vault get
type credentialView struct {
	Name   string `json:"name" yaml:"name"`
	Host   string `json:"host,omitempty" yaml:"host,omitempty"`
	Secret string `json:"secret" yaml:"secret"`
}

// Run executes the get command
func (cmd *VaultGetCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	v := sp.Vault()
	secret, ok := v.Get(cmd.Name)
	if !ok {
		return vaultError(fmt.Errorf("%s: %w", cmd.Name, vault.ErrNotFound))
	}
	if !cmd.Reveal {
		secret = maskSecret(secret)
	}

	return fp.Formatter.Print(credentialView{
		Name:   cmd.Name,
		Host:   v.Hosts()[cmd.Name],
		Secret: secret,
	})
}

// VaultResetCmd implements vault reset
type VaultResetCmd struct {
	Key bool `help:"Also delete the encryption key"`
}

// Run executes the reset command
func (cmd *VaultResetCmd) Run(sp *ServiceProvider, globals *Globals) error {
	if !globals.Force {
		if !globals.Interactive() {
			return &output.CLIError{
				ExitCode: output.ExitUsage,
				Message:  "Vault reset requires confirmation",
				Hint:     "Pass --force to reset without a prompt",
			}
		}
		if !confirm(os.Stdin, "Delete every stored credential?") {
			fmt.Fprintf(os.Stderr, "Aborted\n")
			return nil
		}
	}

	if err := sp.Vault().Reset(cmd.Key); err != nil {
		return vaultError(err)
	}

	fmt.Fprintf(os.Stderr, "Vault reset\n")
	if cmd.Key {
		fmt.Fprintf(os.Stderr, "Encryption key deleted, a new one is created on the next write\n")
	}
	return nil
}

// VaultPathCmd implements vault path
type VaultPathCmd struct{}

// Run executes the path command
func (cmd *VaultPathCmd) Run(sp *ServiceProvider) error {
	path := sp.Vault().Path()
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "(file does not exist yet - will be created on first write)\n")
	} else {
		fmt.Fprintf(os.Stderr, "(file exists)\n")
	}
	return nil
}

// VaultCheckCmd implements vault check
type VaultCheckCmd struct {
	Service string `arg:"" help:"Service to verify" enum:"shodan" predictor:"service"`
}

// Run executes the check command
func (cmd *VaultCheckCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	secret, ok := sp.Vault().Get(cmd.Service)
	if !ok {
		return output.NewCLIError(output.ExitConfigError, cmd.Service+" key is not configured").
			WithHint("Run: ethos vault set-key " + cmd.Service)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, err := sp.Shodan().APIInfo(ctx, secret)
	if err != nil {
		cliErr := output.FromError(err)
		if errors.Is(err, provider.ErrAuthFailure) {
			cliErr.WithHint("The key was rejected. Run: ethos vault set-key " + cmd.Service)
		}
		return cliErr
	}
	return fp.Formatter.Print(account)
}
