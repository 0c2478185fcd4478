package denorm

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brownie44l1/modeld/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plan(2 pairs mean, 2 pairs std), desire(2), tail(1)
func testLayout() *layout.Layout {
	return layout.NewBuilder().
		Add("plan.mean", 4, layout.Linear).
		Add("plan.std", 4, layout.Exp).
		Add("desire", 2, layout.Linear).
		Add("time", 1, layout.Passthrough).
		MustBuild(11)
}

func TestLoad_GroupOrder(t *testing.T) {
	l := testLayout()
	assert.Equal(t, 20, Count(l))

	// plan scales, plan biases, desire scales, desire biases
	in := "1 2 3 4 5 6 7 8\n" +
		"10 20 30 40 50 60 70 80\n" +
		"0.5 0.25\n" +
		"-1 -2\n"
	table, err := Load(strings.NewReader(in), l)
	require.NoError(t, err)

	assert.Equal(t, 10, table.Len())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 0.5, 0.25}, table.Scale)
	assert.Equal(t, []float32{10, 20, 30, 40, 50, 60, 70, 80, -1, -2}, table.Bias)
}

func TestLoad_Short(t *testing.T) {
	_, err := Load(strings.NewReader("1 2 3"), testLayout())
	assert.ErrorIs(t, err, ErrShortTable)
}

func TestLoad_Malformed(t *testing.T) {
	in := strings.Repeat("1 ", 5) + "abc " + strings.Repeat("1 ", 14)
	_, err := Load(strings.NewReader(in), testLayout())
	assert.ErrorContains(t, err, "malformed")
}

func TestLoad_IgnoresTrailingValues(t *testing.T) {
	in := strings.Repeat("2 ", 20) + "99 99"
	table, err := Load(strings.NewReader(in), testLayout())
	require.NoError(t, err)
	assert.Equal(t, float32(2), table.Bias[9])
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.denorm"), testLayout())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.denorm")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("1.5e0\t", 20)), 0o644))

	table, err := LoadFile(path, testLayout())
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), table.Scale[0])
}

func TestApply_LinearExpPassthrough(t *testing.T) {
	l := testLayout()
	table := Identity(l)
	for i := range table.Scale {
		table.Scale[i] = 2
		table.Bias[i] = 1
	}
	raw := []float32{1, 2, 3, 4, 0, -0.5, 0.5, -1, 10, -10, 0.042}
	out := make([]float32, len(raw))

	require.NoError(t, Apply(out, raw, table, l))

	assert.Equal(t, []float32{3, 5, 7, 9}, out[:4])
	assert.InDelta(t, math.E, out[4], 1e-5)
	assert.InDelta(t, 1.0, out[5], 1e-6)
	assert.InDelta(t, math.Exp(2), out[6], 1e-4)
	assert.InDelta(t, math.Exp(-1), out[7], 1e-6)
	assert.Equal(t, []float32{21, -19}, out[8:10])
	assert.Equal(t, float32(0.042), out[10])
}

func TestApply_StdAlwaysPositive(t *testing.T) {
	l := testLayout()
	table := Identity(l)
	for _, r := range []float32{-40, -3, -0.001, 0, 0.001, 3, 40} {
		raw := make([]float32, l.Size())
		for i := 4; i < 8; i++ {
			raw[i] = r
		}
		out := make([]float32, l.Size())
		require.NoError(t, Apply(out, raw, table, l))
		for i := 4; i < 8; i++ {
			assert.Greater(t, out[i], float32(0), "raw %v", r)
		}
	}
}

func TestApply_InPlace(t *testing.T) {
	l := testLayout()
	raw := []float32{1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 7}
	require.NoError(t, Apply(raw, raw, Identity(l), l))
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 7}, raw)
}

func TestApply_SizeChecks(t *testing.T) {
	l := testLayout()
	assert.ErrorIs(t, Apply(make([]float32, 10), make([]float32, 10), Identity(l), l), layout.ErrSizeMismatch)
	assert.Error(t, Apply(make([]float32, 10), make([]float32, 11), Identity(l), l))
	assert.Error(t, Apply(make([]float32, 11), make([]float32, 11), &Table{}, l))
}
