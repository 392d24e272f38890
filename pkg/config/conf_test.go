package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOrCreate_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(186), c.Seed)
	assert.Equal(t, 20, c.GroupCount)
	assert.Equal(t, 50.0, c.TickWidth)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, filepath.Join(dir, "scorecard.db"), c.DBPath)
}

func TestReadOrCreate_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{DBPath: "/tmp/x.db", LogLevel: "debug", Seed: 7, GroupCount: 10, TickWidth: 25}
	require.NoError(t, Save(dir, want))

	got, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadOrCreate_EmptyDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
}

func TestSave_Validation(t *testing.T) {
	assert.Error(t, Save("", &Config{}))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestGetOrCreateHomeDir_EmptyName(t *testing.T) {
	_, _, err := GetOrCreateHomeDir("")
	assert.Error(t, err)
}
