// Package config loads gensweep settings from .gensweep.yaml, GENSWEEP_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/gensweep/internal/fsutil"
	"github.com/roach88/gensweep/internal/passthrough"
)

// Config keys. Flags bind to these names.
const (
	KeyProjectRoot = "project_root"
	KeyOutputRoot  = "output_root"
	KeyInputRoot   = "input_root"
	KeyDBPath      = "db_path"
	KeyPassthrough = "passthrough"
)

// EnvPrefix prefixes every environment override, e.g. GENSWEEP_OUTPUT_ROOT.
const EnvPrefix = "GENSWEEP"

// Config holds all runtime configuration for one gensweep invocation.
type Config struct {
	ProjectRoot string             `mapstructure:"project_root"`
	OutputRoot  string             `mapstructure:"output_root"`
	InputRoot   string             `mapstructure:"input_root"`
	DBPath      string             `mapstructure:"db_path"`
	Passthrough []passthrough.Spec `mapstructure:"passthrough"`
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProjectRoot, ".")
	v.SetDefault(KeyOutputRoot, "_site")
	v.SetDefault(KeyInputRoot, ".")
	v.SetDefault(KeyDBPath, filepath.Join(".gensweep", "ledger.db"))
	v.SetDefault(KeyPassthrough, []passthrough.Spec{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An explicit file
// must exist. Otherwise .gensweep.yaml is looked up in the project root, then
// the working directory, and may be absent.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".gensweep")
		v.SetConfigType("yaml")
		if root := v.GetString(KeyProjectRoot); root != "" && root != "." {
			v.AddConfigPath(root)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can work with.
func (c Config) Validate() error {
	for key, val := range map[string]string{
		KeyProjectRoot: c.ProjectRoot,
		KeyOutputRoot:  c.OutputRoot,
		KeyInputRoot:   c.InputRoot,
		KeyDBPath:      c.DBPath,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("config: %s must not be empty", key)
		}
	}
	for i, spec := range c.Passthrough {
		if strings.TrimSpace(spec.Source) == "" {
			return fmt.Errorf("config: passthrough[%d]: %w", i, passthrough.ErrEmptySource)
		}
	}
	return nil
}

// ProjectRootAbs returns the project root as an absolute path.
func (c Config) ProjectRootAbs() (string, error) {
	abs, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return abs, nil
}

// LedgerPath resolves DBPath against the project root.
func (c Config) LedgerPath() (string, error) {
	root, err := c.ProjectRootAbs()
	if err != nil {
		return "", err
	}
	return fsutil.Resolve(root, c.DBPath), nil
}

// Resolver returns a passthrough resolver for this configuration.
func (c Config) Resolver() (passthrough.Resolver, error) {
	root, err := c.ProjectRootAbs()
	if err != nil {
		return passthrough.Resolver{}, err
	}
	return passthrough.Resolver{
		ProjectRoot: root,
		InputRoot:   c.InputRoot,
		OutputRoot:  c.OutputRoot,
	}, nil
}
