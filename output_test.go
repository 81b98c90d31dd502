package hpfem

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(x float64, u, dudx []float64) {
	u[0] = x
	if dudx != nil {
		dudx[0] = 1
	}
}

func TestWriteSolution(t *testing.T) {
	m, err := NewMesh(0, 2, 2, 1, 1)
	require.NoError(t, err)
	ProjectFunc(m, linear)

	var buf bytes.Buffer
	require.NoError(t, WriteSolution(&buf, m, 3))

	blocks := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	require.Len(t, blocks, 2)
	want := [][]float64{{0, 0.5, 1}, {1, 1.5, 2}}
	for b, block := range blocks {
		lines := strings.Split(block, "\n")
		require.Len(t, lines, 3)
		for i, line := range lines {
			fields := strings.Split(line, "\t")
			require.Len(t, fields, 3)
			vals := make([]float64, len(fields))
			for j, f := range fields {
				vals[j], err = strconv.ParseFloat(f, 64)
				require.NoError(t, err)
			}
			assert.InDelta(t, want[b][i], vals[0], 1e-14)
			assert.InDelta(t, want[b][i], vals[1], 1e-14)
			assert.InDelta(t, 1, vals[2], 1e-14)
		}
	}
}

func TestWriteMesh(t *testing.T) {
	m, err := NewMaterialMesh([]float64{0, 1, 2}, []int{1, 3}, []int{4, 5}, []int{1, 1}, 1)
	require.NoError(t, err)
	require.NoError(t, m.Refine(1, Candidate{Split: true, PLeft: 2, PRight: 3}))

	var buf bytes.Buffer
	require.NoError(t, WriteMesh(&buf, m))
	assert.Equal(t, "0\t1\t1\t0\t4\n1\t1.5\t2\t1\t5\n1.5\t2\t3\t1\t5\n", buf.String())
}

func TestWriteHistory(t *testing.T) {
	h := History{
		{Step: 1, NDof: 4, NDofRef: 10, ErrRel: 2.5, ErrExact: math.NaN()},
		{Step: 2, NDof: 6, NDofRef: 16, ErrRel: 0.125, ErrExact: 0.5},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, h))
	assert.Equal(t, "1\t4\t10\t2.5\tNaN\n2\t6\t16\t0.125\t0.5\n", buf.String())
}

func TestLayout(t *testing.T) {
	m, err := NewMesh(0, 1, 2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, m.Refine(0, Candidate{PLeft: 4}))
	assert.Equal(t, []ElemInfo{
		{ID: 0, X1: 0, X2: 0.5, P: 4},
		{ID: 1, X1: 0.5, X2: 1, P: 2},
	}, m.Layout())
}

// failingWriter fails only its nth write.
type failingWriter struct {
	n, calls int
}

var errWrite = errors.New("write failed")

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.n {
		return 0, errWrite
	}
	return len(p), nil
}

func TestWriteSolutionError(t *testing.T) {
	m, err := NewMesh(0, 2, 2, 1, 1)
	require.NoError(t, err)
	ProjectFunc(m, linear)

	// writes per sample: x, one per equation, newline
	for n := 1; n <= 3; n++ {
		w := &failingWriter{n: n}
		assert.ErrorIs(t, WriteSolution(w, m, 3), errWrite, "write %v", n)
		assert.Equal(t, n, w.calls, "write %v", n)
	}
}
