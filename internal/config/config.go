// Package config loads the .spyunit.yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/spyunit/pkg/registry"
)

// FileName is the configuration file looked up by Find.
const FileName = ".spyunit.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the harness configuration.
type Config struct {
	// Format is the report format: "text" or "json".
	Format string `yaml:"format"`

	// Verbose enables debug logging of the harness itself.
	Verbose bool `yaml:"verbose"`

	// Debug prints captured test debug output for failed tests.
	Debug bool `yaml:"debug"`

	// ReportPath, when set, also writes the JSON report to this file.
	ReportPath string `yaml:"report_path"`

	Generate GenerateConfig `yaml:"generate"`
}

// GenerateConfig configures `spyunit gen`.
type GenerateConfig struct {
	// Output is the file name written into each package.
	Output string `yaml:"output"`

	// MaxTestComplexity is the cyclomatic complexity above which the
	// generator warns about a test method. Zero disables the warning.
	MaxTestComplexity int `yaml:"max_test_complexity"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Format: FormatText,
		Generate: GenerateConfig{
			Output:            registry.GeneratedFile,
			MaxTestComplexity: 10,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error
// when path is empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the path of the nearest FileName in dir or one of its
// parents, or "" when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, FileName)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid format %q: must be %q or %q", c.Format, FormatText, FormatJSON)
	}
	if c.Generate.MaxTestComplexity < 0 {
		return fmt.Errorf("invalid generate.max_test_complexity %d: must not be negative", c.Generate.MaxTestComplexity)
	}
	if c.Generate.Output == "" {
		return errors.New("generate.output must not be empty")
	}
	return nil
}
