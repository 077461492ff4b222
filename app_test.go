package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath:    "/data/tiles",
		OutputFile:    "out.geojson",
		Detailed:      true,
		GroupByFolder: true,
		MergeTiled:    true,
		MergeOverlap:  true,
		Recurse:       true,
		GuessCrs:      true,
		Workers:       3,
		SampleSize:    50,
	})

	assert.Equal(t, "/data/tiles", app.FolderPath)
	assert.Equal(t, "out.geojson", app.OutputFile)
	assert.True(t, app.Detailed)
	assert.True(t, app.GroupByFolder)
	assert.True(t, app.MergeTiled)
	assert.True(t, app.MergeOverlap)
	assert.True(t, app.Recurse)
	assert.True(t, app.GuessCrs)
	assert.Equal(t, 3, app.Workers)
	assert.Equal(t, 50, app.SampleSize)
	assert.NotNil(t, app.Progress)
}

func TestRunEmptyFolder(t *testing.T) {
	output := filepath.Join(t.TempDir(), "empty.geojson")

	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath: t.TempDir(),
		OutputFile: output,
	})
	require.NoError(t, app.Run())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "from-config.geojson")

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("workers: 2\noutput: "+output+"\n"), 0644))

	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath: t.TempDir(),
		ConfigFile: configPath,
	})
	require.NoError(t, app.Run())

	_, err := os.Stat(output)
	assert.NoError(t, err, "output path from config should be used when the flag is unset")
}

func TestRunMissingFolder(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, app.Run())
}

func TestRunBadConfigFile(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath: t.TempDir(),
		ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	assert.Error(t, app.Run())
}
