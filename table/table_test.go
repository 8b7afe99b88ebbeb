package table

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tb := New([]string{"x", "y"})
	require.NoError(t, tb.Append(0, []float64{1, 2}))
	require.NoError(t, tb.Append(0.5, []float64{3, 4.25}))
	return tb
}

func TestTable_AppendAndColumn(t *testing.T) {
	tb := sample(t)
	assert.Equal(t, 2, tb.Len())
	y, ok := tb.Column("y")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4.25}, y)
	_, ok = tb.Column("z")
	assert.False(t, ok)
	assert.ErrorIs(t, tb.Append(1, []float64{1}), ErrShape)
	assert.NoError(t, tb.Validate())
}

func TestTable_Select(t *testing.T) {
	tb := sample(t)
	sel, err := tb.Select("y", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, sel.Columns)
	assert.Equal(t, []float64{4.25, 3}, sel.Rows[1])

	_, err = tb.Select("nope")
	assert.Error(t, err)
}

func TestTable_Rename(t *testing.T) {
	tb := sample(t)
	up := tb.Rename(strings.ToUpper)
	assert.Equal(t, []string{"X", "Y"}, up.Columns)
	assert.Equal(t, []string{"x", "y"}, tb.Columns)
}

func TestTable_WriteCSV(t *testing.T) {
	var b strings.Builder
	require.NoError(t, sample(t).WriteCSV(&b))
	assert.Equal(t, "time,x,y\n0,1,2\n0.5,3,4.25\n", b.String())
}

func TestTable_JSON(t *testing.T) {
	data, err := json.Marshal(sample(t))
	require.NoError(t, err)
	var back Table
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, sample(t), &back)
}
