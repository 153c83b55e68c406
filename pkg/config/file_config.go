// Copyright 2025 Certen Protocol
//
// Optional YAML configuration file, layered on top of the environment
// variables read by config.go. Grounded on the teacher's
// LoadAnchorConfig/applyDefaults/substituteEnvVars shape: read the file,
// substitute ${VAR} references from the environment, and unmarshal with
// gopkg.in/yaml.v3. Defaults are not filled in here; ApplyFile copies only
// the non-zero fields onto a Config.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration marshals as a Go duration string ("10s") in YAML rather than a
// bare integer of ambiguous unit.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// FileConfig is the optional on-disk configuration file layered on top of
// the environment variables in config.go: ApplyFile lets its non-zero
// fields override them. Any field left zero-valued keeps Config's value.
type FileConfig struct {
	ProfileDir      string   `yaml:"profile_dir"`
	OutputDir       string   `yaml:"output_dir"`
	RemoteURL       string   `yaml:"remote_url"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	RecordsPerFile  int      `yaml:"records_per_file"`
	ProofSampleSize int      `yaml:"proof_sample_size"`
	LogLevel        string   `yaml:"log_level"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}

		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadFileConfig reads and parses an optional YAML config file at path,
// expanding ${VAR} references against the environment first.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &fc, nil
}

// ApplyFile overlays non-zero fields of fc onto c, letting a YAML file
// override defaults without requiring every field to be repeated in it.
func (c *Config) ApplyFile(fc *FileConfig) {
	if fc.ProfileDir != "" {
		c.ProfileDir = fc.ProfileDir
	}
	if fc.OutputDir != "" {
		c.OutputDir = fc.OutputDir
	}
	if fc.RemoteURL != "" {
		c.RemoteURL = fc.RemoteURL
	}
	if fc.RequestTimeout != 0 {
		c.RequestTimeout = fc.RequestTimeout.Duration()
	}
	if fc.RecordsPerFile != 0 {
		c.RecordsPerFile = fc.RecordsPerFile
	}
	if fc.ProofSampleSize != 0 {
		c.ProofSampleSize = fc.ProofSampleSize
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
}
