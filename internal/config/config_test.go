package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
	t.Setenv("HOME", "/home/analyst")
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return fs
}

func TestLoadDefaults(t *testing.T) {
	withMemFs(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/analyst", ".rethinkbi"), cfg.Workspace)
	assert.Equal(t, EngineDuckDB, cfg.Engine.Driver)
	assert.Equal(t, filepath.Join(cfg.Workspace, "data", "workspace.duckdb"), cfg.Engine.Path)
	assert.Equal(t, time.Duration(0), cfg.Engine.QueryTimeout)
	assert.Equal(t, 500, cfg.Query.PageSize)
	assert.Equal(t, "127.0.0.1:7878", cfg.Server.Listen)
}

func TestLoadFromFile(t *testing.T) {
	fs := withMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/rethinkbi.yaml", []byte(`
workspace: ~/bi
engine:
  driver: sqlite
  path: ":memory:"
  query_timeout: 30s
log:
  level: debug
  format: json
query:
  page_size: 100
`), 0o644))

	cfg, err := Load("/etc/rethinkbi.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/home/analyst/bi", cfg.Workspace)
	assert.Equal(t, EngineSQLite, cfg.Engine.Driver)
	assert.True(t, cfg.InMemory())
	assert.Equal(t, 30*time.Second, cfg.Engine.QueryTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100, cfg.Query.PageSize)
}

func TestLoadEnvOverride(t *testing.T) {
	withMemFs(t)
	t.Setenv("RETHINKBI_ENGINE_DRIVER", "SQLITE")
	t.Setenv("RETHINKBI_SERVER_LISTEN", "0.0.0.0:9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EngineSQLite, cfg.Engine.Driver)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	withMemFs(t)

	_, err := Load("/nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Engine.Driver = "postgres" }},
		{"negative timeout", func(c *Config) { c.Engine.QueryTimeout = -time.Second }},
		{"negative page size", func(c *Config) { c.Query.PageSize = -1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestEnsureWorkspace(t *testing.T) {
	fs := withMemFs(t)

	cfg := Default()
	cfg.Engine.Path = "/data/ws/data/workspace.duckdb"
	require.NoError(t, cfg.EnsureWorkspace())

	ok, err := afero.DirExists(fs, "/data/ws/data")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadDatasetsDir(t *testing.T) {
	fs := withMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/rethinkbi.yaml", []byte("datasets:\n  dir: ~/data\n"), 0o644))

	cfg, err := Load("/etc/rethinkbi.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/home/analyst/data", cfg.Datasets.Dir)

	assert.Equal(t, ".", Default().Datasets.Dir)
}
