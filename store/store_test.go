package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/apoptosim/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New([]string{"C3_A", "Apop"})
	require.NoError(t, tb.Append(0, []float64{0, 0}))
	require.NoError(t, tb.Append(60, []float64{12, 3}))
	return tb
}

func TestStore_PutGetHas(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	ok, err := s.Has(ctx, "ARM1/1.000/0")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "ARM1/1.000/0", sample(t)))
	ok, err = s.Has(ctx, "ARM1/1.000/0")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "ARM1/1.000/0")
	require.NoError(t, err)
	assert.Equal(t, sample(t), got)

	_, err = s.Get(ctx, "ARM1/1.000/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Keys(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	for _, k := range []string{"ARM2/1.000/1", "ARM1/1.000/0", "ARM2/1.000/0"} {
		require.NoError(t, s.Put(ctx, k, sample(t)))
	}
	keys, err := s.Keys(ctx, "ARM2/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ARM2/1.000/0", "ARM2/1.000/1"}, keys)

	all, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Path = dir
	ctx := context.Background()

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", sample(t)))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
