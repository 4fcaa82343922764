package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/output"
)

func queryJSON(t *testing.T, args ...string) output.Results {
	t.Helper()
	out, _, err := execute(t, append([]string{"query", "--json"}, args...)...)
	require.NoError(t, err)

	var res output.Results
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return res
}

func TestQueryCmd_Files(t *testing.T) {
	// Given: a project
	isolate(t)
	root := writeProject(t)

	// When: querying files
	res := queryJSON(t, "--root", root, "main")

	// Then: only the file containing the query matches
	assert.Equal(t, "main", res.Query)
	assert.Equal(t, "file", res.Mode)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "cmd/app/main.go", res.Results[0].Name)
	assert.Equal(t, []int{8, 9, 10, 11}, res.Results[0].Matches)
	assert.Equal(t, "go", res.Results[0].Detail)
}

func TestQueryCmd_Symbols(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	res := queryJSON(t, "--root", root, "--kind", "symbol", "helper")

	require.Len(t, res.Results, 1)
	assert.Equal(t, "helper", res.Results[0].Name)
	assert.Equal(t, 5, res.Results[0].Line)
}

func TestQueryCmd_Commands(t *testing.T) {
	// Given: the jump command tree itself
	isolate(t)
	root := writeProject(t)

	// When: querying commands
	res := queryJSON(t, "--root", root, "--kind", "command", "conf")

	// Then: the config subcommands tie and sort by name
	var names []string
	for _, r := range res.Results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"config init", "config path", "config restore", "config show"}, names)
}

func TestQueryCmd_EmptyQueryListsEverything(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	res := queryJSON(t, "--root", root)

	// Files sort by depth when nothing is typed.
	require.Len(t, res.Results, 4)
	assert.Equal(t, "README.md", res.Results[0].Name)
	assert.Equal(t, "cmd/app/main.go", res.Results[3].Name)
}

func TestQueryCmd_Limit(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	res := queryJSON(t, "--root", root, "--limit", "2")

	assert.Len(t, res.Results, 2)
	assert.Equal(t, 2, res.Count)
}

func TestQueryCmd_All(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	res := queryJSON(t, "--root", root, "--kind", "all", "srv")

	assert.Equal(t, "mixed", res.Mode)
	var names []string
	for _, r := range res.Results {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "NewServer")
	assert.Contains(t, names, "internal/server.go")
	assert.Contains(t, names, "serve")
}

func TestQueryCmd_PlainOutput(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	out, _, err := execute(t, "query", "--root", root, "main")

	require.NoError(t, err)
	assert.Contains(t, out, "cmd/app/[main].go")
	assert.Contains(t, out, "file")
}

func TestQueryCmd_NoMatches(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	out, _, err := execute(t, "query", "--root", root, "zzzz")

	require.NoError(t, err)
	assert.Contains(t, out, `No matches for "zzzz" among 4 candidates`)
}

func TestQueryCmd_UnknownKind(t *testing.T) {
	isolate(t)
	root := writeProject(t)

	_, _, err := execute(t, "query", "--root", root, "--kind", "window", "x")

	require.Error(t, err)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeUnknownKind))
}

func TestQueryCmd_MissingRoot(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "query", "--root", "/definitely/not/here", "x")

	assert.Error(t, err)
}
