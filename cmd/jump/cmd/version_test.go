package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/jump/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "jump")
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info["version"])
	for _, key := range []string{"commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, info, key)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "--version")

	require.NoError(t, err)
	assert.Equal(t, "jump version "+version.Version+"\n", out)
}
