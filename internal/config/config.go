// Package config loads the optional .loom.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"strand/loom/internal/ir"
	"strand/loom/internal/lint"
)

// FileName is the project config file loom looks for.
const FileName = ".loom.yaml"

// LintConfig tunes linter thresholds.
type LintConfig struct {
	MaxNestingDepth int      `yaml:"max_nesting_depth"`
	MaxCausalChain  int      `yaml:"max_causal_chain"`
	OrphanExempt    []string `yaml:"orphan_exempt"`
}

// QueryConfig sets per-query defaults.
type QueryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Config is the full .loom.yaml shape.
type Config struct {
	Lint  LintConfig  `yaml:"lint"`
	Query QueryConfig `yaml:"query"`
	Serve ServeConfig `yaml:"serve"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	lc := lint.DefaultConfig()
	exempt := make([]string, 0, len(lc.OrphanExempt))
	for _, t := range lc.OrphanExempt {
		exempt = append(exempt, string(t))
	}
	return &Config{
		Lint: LintConfig{
			MaxNestingDepth: lc.MaxNestingDepth,
			MaxCausalChain:  lc.MaxCausalChain,
			OrphanExempt:    exempt,
		},
		Query: QueryConfig{MaxDepth: 0},
		Serve: ServeConfig{
			Addr:           ":7070",
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load resolves and reads the config using priority: explicit path > env >
// walk-up from CWD > defaults. A missing file is not an error; a file that
// exists but fails to parse is.
func Load(explicit string) (*Config, error) {
	path, err := Discover(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return loadFile(path)
}

// Discover finds the config file path, or "" if none exists.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config not found at --config path: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := os.Getenv("LOOM_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, FileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return "", nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LintRules converts the file shape into the linter's config.
func (c *Config) LintRules() *lint.Config {
	lc := lint.DefaultConfig()
	if c.Lint.MaxNestingDepth > 0 {
		lc.MaxNestingDepth = c.Lint.MaxNestingDepth
	}
	if c.Lint.MaxCausalChain > 0 {
		lc.MaxCausalChain = c.Lint.MaxCausalChain
	}
	if c.Lint.OrphanExempt != nil {
		exempt := make([]ir.NodeType, 0, len(c.Lint.OrphanExempt))
		for _, t := range c.Lint.OrphanExempt {
			exempt = append(exempt, ir.NodeType(t))
		}
		lc.OrphanExempt = exempt
	}
	return lc
}
