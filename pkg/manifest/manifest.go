// Copyright 2025 Certen Protocol
//
// Manifest generator — core spec section 4.6. Grounded on
// original_source/builder/manifest.py for field semantics and on
// pkg/commitment/commitment.go's hashing helpers (now pkg/canon) for the
// hex-digest computation style.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// FileEntry is one emitted file's digest and size.
type FileEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest is the bundle-level digest record written to manifest.json.
type Manifest struct {
	Version         int         `json:"version"`
	Date            string      `json:"date"`
	Files           []FileEntry `json:"files"`
	CoreSpecSHA256  string      `json:"core_spec_sha256"`
	ProfileSHA256   string      `json:"profile_sha256"`
	DailyRootSHA256 string      `json:"daily_root_sha256"`
}

// HashFile returns the lowercase-hex SHA-256 digest and size in bytes of
// the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("manifest: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// dirEntry is one file of a {path, sha256} listing, sorted by path before
// hashing, used for the resolved profile_sha256 scheme below.
type dirEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// ProfileDigest resolves core spec section 9's open question on
// profile_sha256: the SHA-256 of the canonical JSON encoding of a sorted
// {path, sha256} listing for every regular file directly under
// profileDir/profileID/.
func ProfileDigest(profileDir, profileID string) (string, error) {
	dir := filepath.Join(profileDir, profileID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: read profile dir %s: %w", dir, err)
	}

	listing := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sum, _, err := HashFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", err
		}
		listing = append(listing, dirEntry{Path: e.Name(), SHA256: sum})
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Path < listing[j].Path })

	encoded, err := json.Marshal(listing)
	if err != nil {
		return "", fmt.Errorf("manifest: encode profile digest listing: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Generate walks bundleDir, hashing every regular file except
// manifest.json and checkpoint.json (which do not exist yet or must not
// be self-referential), sorted by path, and assembles the manifest.
func Generate(bundleDir, date, dailyRoot, coreSpecSHA256, profileSHA256 string) (*Manifest, error) {
	var entries []FileEntry

	err := filepath.Walk(bundleDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bundleDir, path)
		if err != nil {
			return err
		}
		if rel == "manifest.json" || rel == "checkpoint.json" {
			return nil
		}

		sum, size, err := HashFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{Path: filepath.ToSlash(rel), SHA256: sum, Size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: walk %s: %w", bundleDir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return &Manifest{
		Version:         1,
		Date:            date,
		Files:           entries,
		CoreSpecSHA256:  coreSpecSHA256,
		ProfileSHA256:   profileSHA256,
		DailyRootSHA256: dailyRoot,
	}, nil
}

// Digest returns the SHA-256 hex digest of m's compact json.Marshal
// encoding (fields in struct order). The append-only guard does not use
// it; it compares daily_root_sha256 values.
func Digest(m *Manifest) (string, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("manifest: encode: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
