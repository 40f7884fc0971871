package store_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/buildbench/pkg/config"
	"github.com/buildbench/buildbench/pkg/store"
)

func setupTestStore(t *testing.T) store.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := store.New(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	require.NoError(t, s.AddSample(ctx, id, 100))
	require.NoError(t, s.AddSample(ctx, id, 200))
	require.NoError(t, s.AddSample(ctx, id, 300))

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{id})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, "myhostname", runs[0].Hostname)
	assert.Equal(t, "mylanguage", runs[0].Language)
	assert.Equal(t, "mytoolchain", runs[0].ToolchainLabel)
	assert.Equal(t, "mybenchmark", runs[0].BenchmarkName)

	// Samples come back in insertion order.
	assert.Equal(t, []int64{100, 200, 300}, runs[0].Durations())
}

func TestStore_LoadRunWithNoSamples(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{id})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Samples)
}

func TestStore_CreatedAtAssigned(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "h", "l", "t", "b")
	require.NoError(t, err)

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{id})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Positive(t, runs[0].CreatedAt, "timestamp must be store-assigned")
}

func TestStore_AddSampleUnknownRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.AddSample(ctx, 999, 100)
	require.ErrorIs(t, err, store.ErrUnknownRun)
}

func TestStore_LoadLatestRunsWithNoObsoletedRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Five runs that differ pairwise in exactly one identity field.
	identities := [][4]string{
		{"myhostname", "mylanguage", "mytoolchain", "mybenchmark"},
		{"myhostname2", "mylanguage", "mytoolchain", "mybenchmark"},
		{"myhostname", "mylanguage2", "mytoolchain", "mybenchmark"},
		{"myhostname", "mylanguage", "mytoolchain2", "mybenchmark"},
		{"myhostname", "mylanguage", "mytoolchain", "mybenchmark2"},
	}

	created := make([]store.RunID, 0, len(identities))

	for _, ident := range identities {
		id, err := s.CreateRun(ctx, ident[0], ident[1], ident[2], ident[3])
		require.NoError(t, err)

		created = append(created, id)
	}

	runs, err := s.LoadLatestRuns(ctx)
	require.NoError(t, err)

	loaded := make([]store.RunID, 0, len(runs))
	for _, run := range runs {
		loaded = append(loaded, run.ID)
	}

	assert.ElementsMatch(t, created, loaded)
}

func TestStore_LoadLatestRunsWithObsoletedRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	secondID, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	runs, err := s.LoadLatestRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, secondID, runs[0].ID)
}

func TestStore_LoadAllRunsIncludesObsoletedRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	firstID, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	secondID, err := s.CreateRun(ctx, "myhostname", "mylanguage", "mytoolchain", "mybenchmark")
	require.NoError(t, err)

	runs, err := s.LoadAllRuns(ctx)
	require.NoError(t, err)

	ids := make([]store.RunID, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.ID)
	}

	assert.ElementsMatch(t, []store.RunID{firstID, secondID}, ids)
}

func TestStore_LoadRunsByIDsNoCrossContamination(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	firstID, err := s.CreateRun(ctx, "h", "l", "t", "b1")
	require.NoError(t, err)

	secondID, err := s.CreateRun(ctx, "h", "l", "t", "b2")
	require.NoError(t, err)

	require.NoError(t, s.AddSample(ctx, firstID, 111))
	require.NoError(t, s.AddSample(ctx, secondID, 222))

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{secondID})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	// Only the requested run's samples are attached.
	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, []int64{222}, runs[0].Durations())
}

func TestStore_LoadRunsByIDsEmpty(t *testing.T) {
	s := setupTestStore(t)

	runs, err := s.LoadRunsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
