package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PROOFBUNDLE_PROFILE_DIR")
	os.Unsetenv("PROOFBUNDLE_OUTPUT_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RecordsPerFile != 10000 {
		t.Errorf("got RecordsPerFile=%d, want 10000", cfg.RecordsPerFile)
	}
	if cfg.ProofSampleSize != 5 {
		t.Errorf("got ProofSampleSize=%d, want 5", cfg.ProofSampleSize)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{RecordsPerFile: 1, ProofSampleSize: 1}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing profile/output dirs")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{
		ProfileDir:      "/tmp/profiles",
		OutputDir:       "/tmp/out",
		RecordsPerFile:  10000,
		ProofSampleSize: 5,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyFile_OverridesOnlyNonZero(t *testing.T) {
	cfg := &Config{
		ProfileDir:      "/env/profiles",
		OutputDir:       "/env/out",
		RecordsPerFile:  10000,
		ProofSampleSize: 5,
	}
	fc := &FileConfig{
		OutputDir:      "/file/out",
		RecordsPerFile: 500,
	}
	cfg.ApplyFile(fc)

	if cfg.ProfileDir != "/env/profiles" {
		t.Errorf("ProfileDir should be unchanged, got %q", cfg.ProfileDir)
	}
	if cfg.OutputDir != "/file/out" {
		t.Errorf("OutputDir should be overridden, got %q", cfg.OutputDir)
	}
	if cfg.RecordsPerFile != 500 {
		t.Errorf("RecordsPerFile should be overridden, got %d", cfg.RecordsPerFile)
	}
	if cfg.ProofSampleSize != 5 {
		t.Errorf("ProofSampleSize should be unchanged, got %d", cfg.ProofSampleSize)
	}
}
