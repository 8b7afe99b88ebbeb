package ensemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/apoptosim/store"
)

func TestGrid(t *testing.T) {
	jobs := Grid(SeedRange(0, 3), []float64{0.5, 1}, []int{1, 4})
	require.Len(t, jobs, 12)
	assert.Equal(t, Job{Seed: 0, Volume: 0.5, Mitochondria: 1}, jobs[0])
	assert.Equal(t, Job{Seed: 2, Volume: 0.5, Mitochondria: 1}, jobs[2])
	assert.Equal(t, Job{Seed: 0, Volume: 1, Mitochondria: 4}, jobs[9])
	assert.Equal(t, "ARM4/1.000/2", jobs[11].Key())
}

func TestGeomSpace(t *testing.T) {
	got := GeomSpace(0.1, 1, 6)
	require.Len(t, got, 6)
	assert.Equal(t, 0.1, got[0])
	assert.Equal(t, 1.0, got[5])
	assert.InDelta(t, 0.251188643, got[2], 1e-9)
	for i := 1; i < len(got); i++ {
		assert.InDelta(t, got[1]/got[0], got[i]/got[i-1], 1e-12)
	}
	assert.Equal(t, []float64{1}, GeomSpace(0.1, 1, 1))
}

func TestRunner_SkipsStoredKeys(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	cfg := DefaultConfig()
	cfg.TMax, cfg.Steps, cfg.Workers = 10, 5, 2
	r := NewRunner(st, cfg, nil)
	jobs := Grid(SeedRange(0, 2), []float64{1}, []int{1, 2})
	ctx := context.Background()

	sum, err := r.Run(ctx, jobs)
	require.NoError(t, err)
	assert.Equal(t, Summary{Ran: 4}, sum)

	keys, err := st.Keys(ctx, "ARM2/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ARM2/1.000/0", "ARM2/1.000/1"}, keys)

	tb, err := r.Load(ctx, jobs[3])
	require.NoError(t, err)
	assert.Equal(t, cfg.Save, tb.Columns)
	assert.Equal(t, 6, tb.Len())

	sum, err = r.Run(ctx, jobs)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 4}, sum)
}

func TestRunner_Errors(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	cfg := DefaultConfig()
	cfg.TMax, cfg.Steps = 1, 1
	cfg.Save = []string{"cytoplasm.nope"}
	_, err = NewRunner(st, cfg, nil).Run(context.Background(), []Job{{Seed: 1, Volume: 1, Mitochondria: 1}})
	assert.Error(t, err)

	cfg.Save = nil
	_, err = NewRunner(st, cfg, nil).Run(context.Background(), []Job{{Seed: 1, Volume: 1, Mitochondria: 0}})
	assert.Error(t, err)
}
