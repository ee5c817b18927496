package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/passthrough"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ProjectRoot)
	assert.Equal(t, "_site", cfg.OutputRoot)
	assert.Equal(t, ".", cfg.InputRoot)
	assert.Equal(t, filepath.Join(".gensweep", "ledger.db"), cfg.DBPath)
	assert.Empty(t, cfg.Passthrough)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gensweep.yaml"), []byte(`
output_root: dist
input_root: src
passthrough:
  - source: src/img
  - source: "assets/**/*.woff2"
    target: fonts
`), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "dist", cfg.OutputRoot)
	assert.Equal(t, "src", cfg.InputRoot)
	assert.Equal(t, []passthrough.Spec{
		{Source: "src/img"},
		{Source: "assets/**/*.woff2", Target: "fonts"},
	}, cfg.Passthrough)
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_root: public\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.OutputRoot)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gensweep.yaml"), []byte("output_root: [unclosed\n"), 0o644))

	_, err := Load(New(), "")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GENSWEEP_OUTPUT_ROOT", "from-env")
	t.Setenv("GENSWEEP_DB_PATH", "/var/lib/gensweep.db")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputRoot)
	assert.Equal(t, "/var/lib/gensweep.db", cfg.DBPath)
}

func TestLoad_ExplicitSetWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GENSWEEP_OUTPUT_ROOT", "from-env")

	v := New()
	v.Set(KeyOutputRoot, "from-flag")
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.OutputRoot)
}

func TestValidate(t *testing.T) {
	valid := Config{ProjectRoot: ".", OutputRoot: "_site", InputRoot: ".", DBPath: "x.db"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output root", func(c *Config) { c.OutputRoot = "" }},
		{"blank project root", func(c *Config) { c.ProjectRoot = "  " }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"empty passthrough source", func(c *Config) { c.Passthrough = []passthrough.Spec{{Target: "x"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLedgerPath(t *testing.T) {
	root := t.TempDir()

	cfg := Config{ProjectRoot: root, DBPath: filepath.Join(".gensweep", "ledger.db")}
	got, err := cfg.LedgerPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".gensweep", "ledger.db"), got)

	cfg.DBPath = filepath.Join(root, "elsewhere.db")
	got, err = cfg.LedgerPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "elsewhere.db"), got)
}

func TestResolver(t *testing.T) {
	root := t.TempDir()
	cfg := Config{ProjectRoot: root, InputRoot: "src", OutputRoot: "_site"}

	r, err := cfg.Resolver()
	require.NoError(t, err)
	assert.Equal(t, passthrough.Resolver{ProjectRoot: root, InputRoot: "src", OutputRoot: "_site"}, r)
}

func TestLoad_FileInProjectRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gensweep.yaml"), []byte("output_root: www\n"), 0o644))

	v := New()
	v.Set(KeyProjectRoot, root)
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "www", cfg.OutputRoot)
	assert.Equal(t, root, cfg.ProjectRoot)
}
