package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-finder/ethos/internal/provider"
)

func noEnv(string) string { return "" }

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newTestVault(t *testing.T, dir string, getenv func(string) string) *Vault {
	t.Helper()
	return New(Options{Dir: dir, Logger: zerolog.Nop(), Getenv: getenv})
}

func readDoc(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, DocumentFileName))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestSetEncryptsAtRest(t *testing.T) {
	dir := t.TempDir()
	v := newTestVault(t, dir, noEnv)

	require.NoError(t, v.Set("hunter", "hunter.p.rapidapi.com", "super-secret-value"))

	raw, err := os.ReadFile(filepath.Join(dir, DocumentFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-value")
	assert.Contains(t, string(raw), "hunter.p.rapidapi.com")

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened := newTestVault(t, dir, noEnv)
	doc := reopened.Load()
	assert.Equal(t, "super-secret-value", doc.ProviderKey)
	assert.Equal(t, map[string]string{"hunter": "hunter.p.rapidapi.com"}, doc.ProviderHosts)

	secret, ok := reopened.Get("hunter")
	assert.True(t, ok)
	assert.Equal(t, "super-secret-value", secret)
}

func TestSetRejectsEmptyFields(t *testing.T) {
	v := newTestVault(t, t.TempDir(), noEnv)

	tests := []struct{ name, host, secret string }{
		{"", "h", "s"},
		{"n", "", "s"},
		{"n", "h", "  "},
	}
	for _, tt := range tests {
		err := v.Set(tt.name, tt.host, tt.secret)
		assert.ErrorIs(t, err, provider.ErrInvalidInput)
	}
	assert.ErrorIs(t, v.Set(provider.NameShodan, "h", "s"), provider.ErrInvalidInput)
}

func TestEnvOverrideIsNotPersisted(t *testing.T) {
	dir := t.TempDir()
	env := envFrom(map[string]string{"ETHOS_SHODAN_KEY": "from-env"})
	v := newTestVault(t, dir, env)

	doc := v.Load()
	assert.Equal(t, "from-env", doc.ExtraKeys[provider.NameShodan])

	require.NoError(t, v.SetServiceKey(provider.NameDNSDumpster, "dd-secret"))

	stored := readDoc(t, dir)
	assert.Equal(t, "", stored["shodan_api_key"])
	assert.NotEmpty(t, stored["dnsdumpster_api_key"])
	assert.NotEqual(t, "dd-secret", stored["dnsdumpster_api_key"])

	secret, ok := v.Get(provider.NameShodan)
	assert.True(t, ok)
	assert.Equal(t, "from-env", secret)

	l := v.List()
	for _, s := range l.Secrets {
		if s.Name == provider.NameShodan {
			assert.True(t, s.FromEnv)
			assert.True(t, s.Configured)
		}
	}
}

func TestEnvOverrideWinsOverStoredValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newTestVault(t, dir, noEnv).SetServiceKey(provider.NameShodan, "stored"))

	v := newTestVault(t, dir, envFrom(map[string]string{"ETHOS_SHODAN_KEY": "override"}))
	secret, ok := v.Get(provider.NameShodan)
	assert.True(t, ok)
	assert.Equal(t, "override", secret)
}

func TestPlaintextDocumentMigrates(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"rapidapi_key": "plain-key", "rapidapi_hosts": {"numverify": "numverify.p.rapidapi.com"}, "dnsdumpster_api_key": ""}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentFileName), []byte(legacy), 0600))

	v := newTestVault(t, dir, noEnv)
	secret, ok := v.Get("numverify")
	require.True(t, ok)
	assert.Equal(t, "plain-key", secret)

	require.NoError(t, v.Save())
	stored := readDoc(t, dir)
	assert.NotEqual(t, "plain-key", stored["rapidapi_key"])

	secret, ok = newTestVault(t, dir, noEnv).Get("numverify")
	assert.True(t, ok)
	assert.Equal(t, "plain-key", secret)
}

func TestMalformedDocumentFallsBackToDefault(t *testing.T) {
	for _, content := range []string{"{not json", "[1, 2, 3]", "null", `{"rapidapi_hosts": "oops"}`} {
		t.Run(content, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentFileName), []byte(content), 0600))

			v := newTestVault(t, dir, noEnv)
			doc := v.Load()
			assert.Empty(t, doc.ProviderKey)
			assert.Empty(t, doc.ProviderHosts)

			require.NoError(t, v.Set("a", "a.example", "k"))
			assert.Equal(t, map[string]any{"a": "a.example"}, readDoc(t, dir)["rapidapi_hosts"])
		})
	}
}

func TestUnknownFieldsPreserved(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentFileName),
		[]byte(`{"theme": "dark", "window": {"w": 800}, "rapidapi_hosts": {}}`), 0600))

	v := newTestVault(t, dir, noEnv)
	require.NoError(t, v.Set("a", "a.example", "k"))

	stored := readDoc(t, dir)
	assert.Equal(t, "dark", stored["theme"])
	assert.Equal(t, map[string]any{"w": float64(800)}, stored["window"])
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	v := newTestVault(t, dir, noEnv)

	err := v.Remove("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(filepath.Join(dir, DocumentFileName))
	assert.True(t, os.IsNotExist(statErr), "a failed remove must not write")

	require.NoError(t, v.Set("a", "a.example", "k"))
	require.NoError(t, v.Set("b", "b.example", "k"))
	require.NoError(t, v.Remove("a"))

	assert.Equal(t, []string{"b"}, newTestVault(t, dir, noEnv).Load().Names())

	assert.ErrorIs(t, v.Remove(provider.NameShodan), ErrNotFound)
	require.NoError(t, v.SetServiceKey(provider.NameShodan, "sk"))
	require.NoError(t, v.Remove(provider.NameShodan))
	_, ok := v.Get(provider.NameShodan)
	assert.False(t, ok)
}

func TestSetServiceKeyUnknownService(t *testing.T) {
	v := newTestVault(t, t.TempDir(), noEnv)
	assert.ErrorIs(t, v.SetServiceKey("censys", "x"), provider.ErrInvalidInput)
	assert.ErrorIs(t, v.SetServiceKey(provider.NameShodan, ""), provider.ErrInvalidInput)
}

func TestListNeverRevealsSecrets(t *testing.T) {
	v := newTestVault(t, t.TempDir(), noEnv)
	require.NoError(t, v.Set("zeta", "z.example", "top-secret"))
	require.NoError(t, v.Set("alpha", "a.example", "top-secret"))
	require.NoError(t, v.SetServiceKey(provider.NameShodan, "shodan-secret"))

	l := v.List()
	assert.Equal(t, []Entry{{"alpha", "a.example"}, {"zeta", "z.example"}}, l.Providers)
	assert.True(t, l.Encrypted)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "top-secret")
	assert.NotContains(t, string(data), "shodan-secret")
}

type brokenKeys struct{}

func (brokenKeys) Load() ([]byte, error)   { return nil, errors.New("keystore offline") }
func (brokenKeys) Create() ([]byte, error) { return nil, errors.New("keystore offline") }
func (brokenKeys) Remove() error           { return nil }
func (brokenKeys) Describe() string        { return "broken" }

func TestEncryptionUnavailableRefusesToSave(t *testing.T) {
	dir := t.TempDir()
	v := New(Options{Dir: dir, Keys: brokenKeys{}, Logger: zerolog.Nop(), Getenv: noEnv})

	err := v.Set("a", "a.example", "secret")
	assert.ErrorIs(t, err, ErrEncryptionUnavailable)
	assert.ErrorIs(t, err, provider.ErrPersistence)
	_, statErr := os.Stat(filepath.Join(dir, DocumentFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncryptionUnavailableWithPlaintextOptIn(t *testing.T) {
	dir := t.TempDir()
	v := New(Options{Dir: dir, Keys: brokenKeys{}, AllowPlaintext: true, Logger: zerolog.Nop(), Getenv: noEnv})

	require.NoError(t, v.Set("a", "a.example", "secret"))
	assert.Equal(t, "secret", readDoc(t, dir)["rapidapi_key"])
	assert.False(t, v.List().Encrypted)
}

func TestCorruptKeyReadsAsPlaintext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newTestVault(t, dir, noEnv).Set("a", "a.example", "secret"))
	stored := readDoc(t, dir)["rapidapi_key"].(string)

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte("short"), 0600))

	v := newTestVault(t, dir, noEnv)
	assert.Equal(t, stored, v.Load().ProviderKey)
	assert.ErrorIs(t, v.Save(), ErrEncryptionUnavailable)
}

func TestKeyringKeySource(t *testing.T) {
	dir := t.TempDir()
	ring := keyring.NewArrayKeyring(nil)

	v := New(Options{Dir: dir, Keys: NewKeyringKeySource(ring), Logger: zerolog.Nop(), Getenv: noEnv})
	require.NoError(t, v.SetServiceKey(provider.NameDNSDumpster, "dd-secret"))

	_, err := os.Stat(filepath.Join(dir, KeyFileName))
	assert.True(t, os.IsNotExist(err), "keyring backend must not write a key file")

	item, err := ring.Get(keyringItem)
	require.NoError(t, err)
	assert.Len(t, item.Data, KeySize)

	reopened := New(Options{Dir: dir, Keys: NewKeyringKeySource(ring), Logger: zerolog.Nop(), Getenv: noEnv})
	secret, ok := reopened.Get(provider.NameDNSDumpster)
	assert.True(t, ok)
	assert.Equal(t, "dd-secret", secret)
	assert.Equal(t, "keyring ethos", reopened.List().KeySource)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	v := newTestVault(t, dir, noEnv)
	require.NoError(t, v.Set("a", "a.example", "k"))

	require.NoError(t, v.Reset(false))
	_, err := os.Stat(filepath.Join(dir, DocumentFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, KeyFileName))
	assert.NoError(t, err)
	assert.Empty(t, v.Hosts())

	require.NoError(t, v.Reset(true))
	_, err = os.Stat(filepath.Join(dir, KeyFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentSetsAllPersist(t *testing.T) {
	dir := t.TempDir()
	v := newTestVault(t, dir, noEnv)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, v.Set(fmt.Sprintf("p%d", i), "h.example", "k"))
		}(i)
	}
	wg.Wait()

	assert.Len(t, newTestVault(t, dir, noEnv).Load().ProviderHosts, 8)
}
