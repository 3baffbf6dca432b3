package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAliases(t *testing.T) {
	table, err := DefaultAliases()
	require.NoError(t, err)
	assert.NotEmpty(t, table.Aliases)
	assert.NotEmpty(t, table.Skip)
}

func TestAliasResolve(t *testing.T) {
	table, err := DefaultAliases()
	require.NoError(t, err)

	t.Run("exact phrase", func(t *testing.T) {
		a, ok := table.Resolve("The White House")
		require.True(t, ok)
		assert.Equal(t, 38.897676, a.Lat)
		assert.Equal(t, -77.036529, a.Lon)
	})

	t.Run("substring inside longer text", func(t *testing.T) {
		a, ok := table.Resolve("South Lawn Departure - The White House")
		require.True(t, ok)
		assert.Equal(t, "South Lawn, WH", a.Name)
	})

	t.Run("typographic dashes normalize", func(t *testing.T) {
		a, ok := table.Resolve("Mar–a–Lago, Palm Beach")
		require.True(t, ok)
		assert.Equal(t, "Mar-a-Lago, FL", a.Name)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := table.Resolve("Hôtel de Crillon, Paris")
		assert.False(t, ok)
	})

	t.Run("empty text", func(t *testing.T) {
		_, ok := table.Resolve("")
		assert.False(t, ok)
	})
}

func TestShouldSkipGeocode(t *testing.T) {
	table, err := DefaultAliases()
	require.NoError(t, err)

	assert.True(t, table.ShouldSkipGeocode("Stakeout Location"))
	assert.True(t, table.ShouldSkipGeocode("The Sticks - The White House"))
	assert.False(t, table.ShouldSkipGeocode("The White House"))
}

func TestLoadAliases(t *testing.T) {
	t.Run("empty path falls back to embedded table", func(t *testing.T) {
		table, err := LoadAliases("")
		require.NoError(t, err)
		assert.NotEmpty(t, table.Aliases)
	})

	t.Run("custom file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.yaml")
		data := "aliases:\n  - { match: \"test hall\", lat: 10.5, lon: -20.25, name: \"Test Hall\" }\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		table, err := LoadAliases(path)
		require.NoError(t, err)
		require.Len(t, table.Aliases, 1)
		a, ok := table.Resolve("Test Hall lobby")
		require.True(t, ok)
		assert.Equal(t, 10.5, a.Lat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAliases("/nonexistent/aliases.yaml")
		assert.Error(t, err)
	})

	t.Run("validation rejects out of range coordinates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		data := "aliases:\n  - { match: \"bad\", lat: 123.0, lon: 0.0, name: \"Bad\" }\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		_, err := LoadAliases(path)
		assert.Error(t, err)
	})

	t.Run("validation rejects upper case match keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "case.yaml")
		data := "aliases:\n  - { match: \"Mixed Case\", lat: 1.0, lon: 1.0, name: \"X\" }\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		_, err := LoadAliases(path)
		assert.Error(t, err)
	})
}
