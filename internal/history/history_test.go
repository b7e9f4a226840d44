package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethos-finder/ethos/internal/lookup"
	"github.com/ethos-finder/ethos/internal/provider"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult(query string, started time.Time) lookup.Result {
	return lookup.Result{
		ID:     uuid.New(),
		Query:  query,
		Kind:   provider.KindDomain,
		Method: lookup.MethodPublic,
		Fields: []lookup.Field{
			{Provider: "dns", Name: "ip_address", Value: "93.184.216.34"},
			{Provider: "dns", Name: "ns", Value: "a.iana-servers.net"},
		},
		Errors: []lookup.Failure{
			{Provider: "shodan", Kind: provider.AuthFailure, Message: "authentication failed (HTTP 401)"},
		},
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
	}
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, testResult("old.example", base)))
	require.NoError(t, s.Record(ctx, testResult("new.example", base.Add(time.Hour))))

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "new.example", entries[0].Query)
	assert.Equal(t, "old.example", entries[1].Query)
	assert.Equal(t, provider.KindDomain, entries[0].Kind)
	assert.Equal(t, 2, entries[0].Fields)
	assert.Equal(t, 1, entries[0].Errors)
	assert.Equal(t, 1500*time.Millisecond, entries[0].Duration)
	assert.True(t, entries[0].StartedAt.Equal(base.Add(time.Hour)))
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, testResult("example.com", base.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := testResult("example.com", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.Record(ctx, res))

	got, err := s.Get(ctx, res.ID.String())
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, res.Fields, got.Fields)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, provider.AuthFailure, got.Errors[0].Kind)
}

func TestGetUnknown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), uuid.NewString())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, testResult("a.example", now)))
	require.NoError(t, s.Record(ctx, testResult("b.example", now)))

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, testResult("example.com", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
