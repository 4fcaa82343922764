package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	assert.NotNil(t, serve.Flags().Lookup("transport"))
	watch := serve.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "true", watch.DefValue)
}

func TestServeCmd_UnknownTransport(t *testing.T) {
	// Given: an isolated home; serve installs the file logger as default
	isolate(t)
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	root := writeProject(t)

	// When: serving over a transport that does not exist
	out, _, err := execute(t, "serve", "--root", root, "--watch=false", "--transport", "carrier-pigeon")

	// Then: it fails without writing to stdout
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
	assert.Empty(t, out)
}
