package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "run", "weather", "forecast", "favorites"}, names)
}

func TestFavoritesCommands(t *testing.T) {
	t.Setenv("OPENWX_DATA_DIR", t.TempDir())
	t.Setenv("OPENWX_FAVORITES_BACKEND", "file")
	t.Setenv("OPENWX_LOG_LEVEL", "error")

	out, err := execute(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No favorites saved.")

	out, err = execute(t, "favorites", "add", "São", "Paulo")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved São Paulo.")

	out, err = execute(t, "favorites", "add", "São Paulo")
	require.NoError(t, err)
	assert.Contains(t, out, "already saved")

	out, err = execute(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. São Paulo")

	out, err = execute(t, "favorites", "remove", "São Paulo")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1.")
}

func TestForecastCmd_RejectsDays(t *testing.T) {
	t.Setenv("OPENWX_DATA_DIR", t.TempDir())
	t.Setenv("OPENWX_FAVORITES_BACKEND", "memory")
	t.Setenv("OPENWX_LOG_LEVEL", "error")

	_, err := execute(t, "forecast", "Paris", "--days", "9")

	require.Error(t, err)
	assert.Equal(t, "days must be between 1 and 7", err.Error())
}
