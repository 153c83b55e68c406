// Copyright 2025 Certen Protocol

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	sum, size, err := HashFile(path)
	require.NoError(t, err)
	require.Len(t, sum, 64)
	require.EqualValues(t, 6, size)
}

func TestProfileDigest_DeterministicAcrossFileOrder(t *testing.T) {
	dir := t.TempDir()
	profileDir := filepath.Join(dir, "p1")
	require.NoError(t, os.MkdirAll(profileDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "profile.json"), []byte(`{"a":1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "readme.txt"), []byte("notes"), 0o644))

	d1, err := ProfileDigest(dir, "p1")
	require.NoError(t, err)

	// Same files written in the opposite order under another profile id.
	otherDir := filepath.Join(dir, "p2")
	require.NoError(t, os.MkdirAll(otherDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(otherDir, "readme.txt"), []byte("notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(otherDir, "profile.json"), []byte(`{"a":1}`), 0o644))

	d2, err := ProfileDigest(dir, "p2")
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestGenerate_ExcludesManifestAndCheckpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily_root.txt"), []byte("abc\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte(`{}`), 0o644))

	m, err := Generate(dir, "2026-01-17", "root-hex", "corespec-hex", "profile-hex")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	require.Equal(t, "daily_root.txt", m.Files[0].Path)
}

func TestDigest_Deterministic(t *testing.T) {
	m := &Manifest{Version: 1, Date: "2026-01-17", DailyRootSHA256: "root"}
	d1, err := Digest(m)
	require.NoError(t, err)
	d2, err := Digest(m)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}
