package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchCmd_JSON(t *testing.T) {
	// Given: a project
	isolate(t)
	root := writeProject(t)

	// When: benchmarking two queries over files
	out, stderr, err := execute(t, "bench", "--root", root, "--kind", "file", "--iterations", "3", "--json", "main", "zzzz")
	require.NoError(t, err)

	// Then: every query ran the requested number of times
	var report benchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "file", report.Mode)
	assert.Equal(t, 4, report.Candidates)
	assert.Equal(t, 3, report.Iterations)
	require.Len(t, report.Queries, 2)
	assert.Equal(t, 1, report.Queries[0].Results)
	assert.Equal(t, 0, report.Queries[1].Results)
	for _, q := range report.Queries {
		assert.LessOrEqual(t, q.Min, q.Mean)
		assert.LessOrEqual(t, q.Mean, q.Max)
	}
	assert.Positive(t, report.Sys)

	// And: progress went to stderr
	assert.Contains(t, stderr, "100%")
}

func TestBenchCmd_Text(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	out, _, err := execute(t, "bench", "--root", root, "--iterations", "1", "main")

	require.NoError(t, err)
	assert.Contains(t, out, "mixed candidates loaded")
	assert.Contains(t, out, `"main"`)
	assert.Contains(t, out, "heap")
}
