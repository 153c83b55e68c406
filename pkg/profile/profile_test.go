// Copyright 2025 Certen Protocol
//
// Profile loader tests

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, profileID, body string) {
	t.Helper()
	profileDir := filepath.Join(dir, profileID)
	require.NoError(t, os.MkdirAll(profileDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "profile.json"), []byte(body), 0o644))
}

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "domains-v1", `{
		"profile_id": "domains-v1",
		"profile_version": "1",
		"required_fields": ["domain", "txid"],
		"canonical_fields": ["domain", "txid"],
		"normalizers": {"domain": "idna_lower_strip_trailing_dot", "txid": "lower_hex"},
		"sort_keys": ["domain"]
	}`)

	p, err := Load(dir, "domains-v1")
	require.NoError(t, err)
	require.Equal(t, "domains-v1", p.ProfileID)
	require.Equal(t, "|", p.CanonicalRecordSeparator)
	require.Equal(t, "\n", p.CanonicalLineEnding)
}

func TestLoad_UnknownNormalizer(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bad-v1", `{
		"profile_id": "bad-v1",
		"canonical_fields": ["domain"],
		"normalizers": {"domain": "not_a_real_normalizer"}
	}`)

	_, err := Load(dir, "bad-v1")
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, "nonexistent")
	require.Error(t, err)
}

func TestValidate_EmptyCanonicalFields(t *testing.T) {
	p := &Profile{ProfileID: "x"}
	require.ErrorIs(t, p.Validate(), ErrEmptyCanonicalFields)
}

func TestValidate_EmptyProfileID(t *testing.T) {
	p := &Profile{CanonicalFields: []string{"a"}}
	require.ErrorIs(t, p.Validate(), ErrEmptyProfileID)
}

func TestNormalizerFor(t *testing.T) {
	p := &Profile{Normalizers: map[string]string{"domain": "lower"}}
	name, ok := p.NormalizerFor("domain")
	require.True(t, ok)
	require.Equal(t, "lower", string(name))

	_, ok = p.NormalizerFor("missing")
	require.False(t, ok)
}
