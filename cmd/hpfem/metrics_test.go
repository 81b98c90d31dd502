package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rwcarlsen/hpfem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestRunMetrics(t *testing.T) {
	rm := newRunMetrics("sine")
	rm.observeHistory(hpfem.History{
		{Step: 1, NActive: 2, NDof: 3, NDofRef: 9, ErrRel: 40, ErrExact: nan()},
		{Step: 2, NActive: 3, NDof: 6, NDofRef: 14, ErrRel: 0.5, ErrExact: nan()},
	}, false)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, rm.write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "# TYPE hpfem_run gauge")
	for _, line := range []string{
		`hpfem_run{problem="sine",quantity="steps"} 2`,
		`hpfem_run{problem="sine",quantity="converged"} 0`,
		`hpfem_run{problem="sine",quantity="elements"} 3`,
		`hpfem_run{problem="sine",quantity="ndof"} 6`,
		`hpfem_run{problem="sine",quantity="ndof_ref"} 14`,
		`hpfem_run{problem="sine",quantity="err_rel_percent"} 0.5`,
	} {
		assert.Contains(t, text, line)
	}
	assert.NotContains(t, text, "err_exact_percent")
	assert.Equal(t, 6, strings.Count(text, "hpfem_run{"))
}

func TestRunMetricsEmptyHistory(t *testing.T) {
	rm := newRunMetrics("heat")
	rm.observeHistory(nil, false)
	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, rm.write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "hpfem_run{"))
}
