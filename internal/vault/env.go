package vault

import (
	"os"

	"github.com/ethos-finder/ethos/internal/provider"
)

// EnvVars maps each secret field to the environment variable that overrides it.
var EnvVars = map[string]string{
	FieldProviderKey:         "ETHOS_RAPIDAPI_KEY",
	provider.NameDNSDumpster: "ETHOS_DNSDUMPSTER_KEY",
	provider.NameShodan:      "ETHOS_SHODAN_KEY",
}

// readEnv returns the non-empty overrides keyed by field.
func readEnv(getenv func(string) string) map[string]string {
	if getenv == nil {
		getenv = os.Getenv
	}
	out := make(map[string]string)
	for _, field := range secretFields {
		if v := getenv(EnvVars[field]); v != "" {
			out[field] = v
		}
	}
	return out
}
