package runstore

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rwcarlsen/hpfem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordHistory(t *testing.T) {
	s := openStore(t)
	h := hpfem.History{
		{Step: 1, NActive: 4, NDof: 4, NDofRef: 16, ErrRel: 12.5, ErrExact: math.NaN(), Iters: 3},
		{Step: 2, NActive: 6, NDof: 9, NDofRef: 27, ErrRel: 0.5, ErrExact: 0.25, Iters: 2},
	}
	id, err := s.Record("riccati", "adapt: {type: hp}\n", true, h)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := s.History(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, math.IsNaN(got[0].ErrExact))
	got[0].ErrExact = 0
	h[0].ErrExact = 0
	assert.Equal(t, h, got)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "riccati", runs[0].Problem)
	assert.True(t, runs[0].Converged)
	assert.False(t, runs[0].Created.IsZero())
}

func TestRunsOrder(t *testing.T) {
	s := openStore(t)
	first, err := s.Record("heat", "", true, nil)
	require.NoError(t, err)
	second, err := s.Record("sine", "", false, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	h, err := s.History(first)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestHistoryUnknownRun(t *testing.T) {
	s := openStore(t)
	_, err := s.History("nope")
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Record("poisson", "", true, hpfem.History{{Step: 1, ErrExact: 1}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	h, err := s.History(id)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}
