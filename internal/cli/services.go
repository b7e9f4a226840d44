package cli

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ethos-finder/ethos/internal/config"
	"github.com/ethos-finder/ethos/internal/governor"
	"github.com/ethos-finder/ethos/internal/history"
	"github.com/ethos-finder/ethos/internal/lookup"
	"github.com/ethos-finder/ethos/internal/output"
	"github.com/ethos-finder/ethos/internal/provider"
	"github.com/ethos-finder/ethos/internal/vault"
)

// ServiceProvider lazily creates and caches the core services.
type ServiceProvider struct {
	cfg     *config.Config
	globals *Globals
	log     zerolog.Logger

	vaultOnce sync.Once
	vault     *vault.Vault

	clientOnce sync.Once
	governor   *governor.Governor
	client     *provider.Client

	dispatcherOnce sync.Once
	dispatcher     *lookup.Dispatcher

	historyOnce sync.Once
	history     *history.Store
	historyErr  error
}

// NewServiceProvider creates a ServiceProvider with the given config.
func NewServiceProvider(cfg *config.Config, globals *Globals, log zerolog.Logger) *ServiceProvider {
	return &ServiceProvider{cfg: cfg, globals: globals, log: log}
}

// Logger returns the shared logger.
func (sp *ServiceProvider) Logger() zerolog.Logger {
	return sp.log
}

// VaultDir resolves the vault directory: flag or env, then config, then the
// XDG default.
func (sp *ServiceProvider) VaultDir() string {
	if sp.globals != nil && sp.globals.VaultDir != "" {
		return sp.globals.VaultDir
	}
	if sp.cfg.VaultDir != "" {
		return sp.cfg.VaultDir
	}
	return vault.DefaultDir()
}

// Vault returns the credential vault, creating it on first call.
func (sp *ServiceProvider) Vault() *vault.Vault {
	sp.vaultOnce.Do(func() {
		dir := sp.VaultDir()
		sp.vault = vault.New(vault.Options{
			Dir:            dir,
			Keys:           vault.NewKeySource(sp.cfg.KeyBackendOrDefault(), dir, sp.log),
			AllowPlaintext: sp.cfg.PlaintextAllowed(),
			Logger:         sp.log,
		})
	})
	return sp.vault
}

// Client returns the provider HTTP client and its governor.
func (sp *ServiceProvider) Client() *provider.Client {
	sp.clientOnce.Do(func() {
		sp.governor = governor.New(sp.cfg.MinDelayOrDefault())
		sp.client = provider.NewClient(provider.ClientOptions{
			Governor:  sp.governor,
			UserAgent: sp.cfg.UserAgent,
			Retries:   sp.cfg.RetriesOrDefault(),
			Logger:    sp.log,
		})
	})
	return sp.client
}

// Dispatcher returns the search dispatcher, creating it on first call.
func (sp *ServiceProvider) Dispatcher() *lookup.Dispatcher {
	sp.dispatcherOnce.Do(func() {
		client := sp.Client()
		sp.dispatcher = lookup.New(lookup.Options{
			Client:         client,
			Registry:       provider.NewRegistry(provider.Platforms),
			Credentials:    sp.Vault(),
			Governor:       sp.governor,
			Concurrency:    sp.cfg.ConcurrencyOrDefault(),
			FallbackRegion: sp.cfg.Region(),
			Logger:         sp.log,
		})
	})
	return sp.dispatcher
}

// Shodan returns the Shodan API client.
func (sp *ServiceProvider) Shodan() *provider.Shodan {
	return &provider.Shodan{Client: sp.Client()}
}

// History returns the search history store, opening it on first call.
func (sp *ServiceProvider) History() (*history.Store, error) {
	sp.historyOnce.Do(func() {
		store, err := history.Open(history.DefaultPath())
		if err != nil {
			sp.historyErr = &output.CLIError{
				ExitCode: output.ExitIOError,
				Message:  fmt.Sprintf("Failed to open search history: %v", err),
			}
			return
		}
		sp.history = store
	})
	return sp.history, sp.historyErr
}

// RecordsHistory reports whether searches should be recorded.
func (sp *ServiceProvider) RecordsHistory() bool {
	if sp.globals != nil && sp.globals.NoHistory {
		return false
	}
	return sp.cfg.HistoryEnabled()
}

// Close releases open resources.
func (sp *ServiceProvider) Close() error {
	if sp.history != nil {
		return sp.history.Close()
	}
	return nil
}
