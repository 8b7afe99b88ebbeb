package plot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/apoptosim/table"
)

func trajectory(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New([]string{"C3_A", "Apop"})
	for i := 0; i < 20; i++ {
		x := float64(i)
		require.NoError(t, tb.Append(x*60, []float64{x * x, 2 * x}))
	}
	return tb
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, trajectory(t), nil, Options{Title: "markers", Width: 400, Height: 300}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRender_LogYLeavesTableUntouched(t *testing.T) {
	tb := trajectory(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tb, []string{"C3_A"}, Options{LogY: true}))
	col, _ := tb.Column("C3_A")
	assert.Equal(t, 361.0, col[19])
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, table.New([]string{"x"}), nil, Options{}), ErrEmpty)
	assert.Error(t, Render(&buf, trajectory(t), []string{"nope"}, Options{}))
}
