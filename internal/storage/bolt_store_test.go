package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudload/internal/runner"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func item(id string, at time.Time, op runner.Operation) HistoryItem {
	return HistoryItem{
		ID:        id,
		Timestamp: at,
		Config:    runner.Config{Operation: op, BaseURL: "http://localhost:4000", Concurrency: 2, RequestsPerWorker: 3},
		Summary:   runner.RunSummary{RunID: id, Operation: op, Workers: 2, Attempted: 6, TotalSuccess: 6},
	}
}

func TestStore_SaveAndList(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Save(item("b", base.Add(time.Minute), runner.OpRead)))
	require.NoError(t, s.Save(item("a", base, runner.OpCreate)))
	require.NoError(t, s.Save(item("c", base.Add(2*time.Minute), runner.OpDelete)))

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, runner.OpDelete, all[0].Summary.Operation)
	assert.Equal(t, 3, all[0].Config.RequestsPerWorker)

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestStore_Get(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(item("run-1", time.Now(), runner.OpUpdate)))

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, runner.OpUpdate, got.Config.Operation)

	_, err = s.Get("1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetMatchesWholeID(t *testing.T) {
	s := openTemp(t)
	id := "6f1c2a34-9b7e-4d21-8c55-0e2f3a4b5c6d"
	require.NoError(t, s.Save(item(id, time.Now(), runner.OpRead)))

	for _, partial := range []string{"0e2f3a4b5c6d", "8c55-0e2f3a4b5c6d", "9b7e-4d21-8c55-0e2f3a4b5c6d", ""} {
		_, err := s.Get(partial)
		assert.ErrorIs(t, err, ErrNotFound, partial)
	}

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.Save(HistoryItem{Timestamp: time.Now()}))
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(item("x", time.Now(), runner.OpRead)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	items, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
