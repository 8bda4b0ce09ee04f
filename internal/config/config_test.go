package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitdocdb/gitdocdb/internal/types"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	opts, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "./git-documentdb/", opts.LocalDir)
	require.Equal(t, types.DefaultMaxIDLength, opts.MaxIDLength)
	require.Equal(t, "", opts.DBName)
}

func TestLoad_TOMLOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "db_name = \"fromtoml\"\nlocal_dir = \"./custom/\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitdocdb.toml"), []byte(content), 0o644))

	opts, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "fromtoml", opts.DBName)
	require.Equal(t, "./custom/", opts.LocalDir)
}

func TestLoad_FlagOverridesTOML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitdocdb.toml"), []byte("db_name = \"fromtoml\"\n"), 0o644))

	opts, err := Load("fromflag")
	require.NoError(t, err)
	require.Equal(t, "fromflag", opts.DBName)
}
