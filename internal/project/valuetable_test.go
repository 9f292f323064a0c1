package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/rl"
)

func sampleTable() *rl.ValueTable {
	t := rl.NewValueTable()
	t.Set(rl.Key{State: 1, Action: 2}, 400)
	t.Set(rl.Key{State: 1, Action: 3}, -1000)
	t.Set(rl.Key{State: 1<<63 + 5, Action: 1<<64 - 1}, 0.125)
	return t
}

func assertSameTable(t *testing.T, want, got *rl.ValueTable) {
	t.Helper()
	assert.Equal(t, want.Document(), got.Document())
}

func TestValueTable_RoundTripFormats(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"policy.json", "policy.json.zst", "policy.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SavePolicy(ctx, path, sampleTable()))

			loaded, err := LoadPolicy(ctx, path)
			require.NoError(t, err)
			assertSameTable(t, sampleTable(), loaded)
		})
	}
}

func TestValueTable_CompressedIsNotPlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json.zst")
	require.NoError(t, SaveValueTable(path, sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.NotEqual(t, byte('{'), data[0])
}

func TestLoadValueTable_MissingFile(t *testing.T) {
	tbl, err := LoadValueTable(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
}

func TestLoadValueTable_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not-a-key": 1}`), 0644))

	_, err := LoadValueTable(path)
	assert.Error(t, err)
}

func TestPolicyStore_SaveReplacesTable(t *testing.T) {
	ctx := context.Background()
	store, err := OpenPolicyStore(filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveTable(ctx, sampleTable()))
	smaller := rl.NewValueTable()
	smaller.Set(rl.Key{State: 9, Action: 9}, 1)
	require.NoError(t, store.SaveTable(ctx, smaller))

	loaded, err := store.LoadTable(ctx)
	require.NoError(t, err)
	assertSameTable(t, smaller, loaded)
}

func TestPolicyStore_EpisodeLog(t *testing.T) {
	ctx := context.Background()
	store, err := OpenPolicyStore(filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	defer store.Close()

	eps := []rl.Episode{
		{Number: 1, Reward: 1200, FillRate: 12.5, Placed: 3, Epsilon: 0.2999},
		{Number: 2, Reward: -500, FillRate: 4, Placed: 1, Epsilon: 0.2998},
	}
	for _, ep := range eps {
		require.NoError(t, store.RecordEpisode(ctx, ep))
	}

	got, err := store.Episodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, eps, got)
}

func TestPolicyStore_SingleConnectionWAL(t *testing.T) {
	store, err := OpenPolicyStore(filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 1, store.db.Stats().MaxOpenConnections)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	assert.Equal(t, "wal", mode)
}
