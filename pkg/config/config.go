// Copyright 2025 Certen Protocol
//
// Runtime configuration for the proof bundle builder: profile/output
// locations, the remote manifest URL consulted by the append-only guard,
// and the chunking/sampling knobs exposed by core spec sections 4.5 and
// 4.8. SECURITY: no required variable carries a default that would make
// the builder silently write to the wrong place.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-driven settings for one builder process.
type Config struct {
	// ProfileDir is the directory under which "<profile_id>/profile.json"
	// is resolved by the profile loader.
	ProfileDir string
	// OutputDir is the root under which "proofs/<date>/" bundles are
	// written.
	OutputDir string
	// RemoteURL, if set, is consulted by the append-only guard as
	// "<RemoteURL>/proofs/<date>/manifest.json". Empty disables the
	// remote check (local-only comparison).
	RemoteURL string
	// RequestTimeout bounds the guard's remote fetch.
	RequestTimeout time.Duration

	// RecordsPerFile is the chunk size for records-NNN.jsonl (core spec
	// default 10000; only lowered in tests).
	RecordsPerFile int
	// ProofSampleSize is the minimum number of proofs re-verified
	// in-process before bundle emission completes (core spec default 5).
	ProofSampleSize int

	LogLevel string
}

// Load reads configuration from environment variables, applying defaults
// safe for local development; ProfileDir and OutputDir have no default
// and must be set explicitly.
func Load() (*Config, error) {
	cfg := &Config{
		ProfileDir:      getEnv("PROOFBUNDLE_PROFILE_DIR", ""),
		OutputDir:       getEnv("PROOFBUNDLE_OUTPUT_DIR", ""),
		RemoteURL:       getEnv("PROOFBUNDLE_REMOTE_URL", ""),
		RequestTimeout:  getEnvDuration("PROOFBUNDLE_REQUEST_TIMEOUT", 10*time.Second),
		RecordsPerFile:  getEnvInt("PROOFBUNDLE_RECORDS_PER_FILE", 10000),
		ProofSampleSize: getEnvInt("PROOFBUNDLE_PROOF_SAMPLE_SIZE", 5),
		LogLevel:        getEnv("PROOFBUNDLE_LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate checks that the settings required to run a build are present.
func (c *Config) Validate() error {
	var errs []string

	if c.ProfileDir == "" {
		errs = append(errs, "PROOFBUNDLE_PROFILE_DIR is required but not set")
	}
	if c.OutputDir == "" {
		errs = append(errs, "PROOFBUNDLE_OUTPUT_DIR is required but not set")
	}
	if c.RecordsPerFile <= 0 {
		errs = append(errs, "PROOFBUNDLE_RECORDS_PER_FILE must be positive")
	}
	if c.ProofSampleSize < 0 {
		errs = append(errs, "PROOFBUNDLE_PROOF_SAMPLE_SIZE must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
