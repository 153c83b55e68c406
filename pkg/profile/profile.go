// Copyright 2025 Certen Protocol
//
// Profile loader — core spec section 3 ("Profile") and section 4.5.
// Grounded on pkg/config/file_config.go's Load-a-file-then-validate shape,
// adapted from YAML to JSON per core spec section 6 ("Profile file").
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/certen/proof-bundle/pkg/normalize"
)

// CanonicalBytesKey is the literal sort_keys token that resolves to a
// record's full canonical byte string rather than a single field.
const CanonicalBytesKey = "canonical_bytes"

const (
	defaultSeparator  = "|"
	defaultLineEnding = "\n"
)

// Profile is a record schema: which fields are required, which fields
// compose the canonical byte sequence and in what order, which normalizer
// applies to each field, and how records are ordered within a bundle.
type Profile struct {
	ProfileID       string            `json:"profile_id"`
	ProfileVersion  string            `json:"profile_version"`
	RequiredFields  []string          `json:"required_fields"`
	CanonicalFields []string          `json:"canonical_fields"`
	Normalizers     map[string]string `json:"normalizers"`
	SortKeys        []string          `json:"sort_keys"`

	CanonicalRecordSeparator string `json:"canonical_record_separator"`
	CanonicalLineEnding      string `json:"canonical_line_ending"`
}

// Load reads "<profileDir>/<profileID>/profile.json" and validates it
// eagerly: unknown normalizer names are fatal at load time, per core spec
// section 7 ("Normalizer registry and profile errors are fatal at load").
func Load(profileDir, profileID string) (*Profile, error) {
	path := filepath.Join(profileDir, profileID, "profile.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	p.applyDefaults()

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.CanonicalRecordSeparator == "" {
		p.CanonicalRecordSeparator = defaultSeparator
	}
	if p.CanonicalLineEnding == "" {
		p.CanonicalLineEnding = defaultLineEnding
	}
}

// Validate checks the profile's own invariants: a non-empty identity, a
// non-empty canonical field list, and that every referenced normalizer
// name is registered.
func (p *Profile) Validate() error {
	if p.ProfileID == "" {
		return ErrEmptyProfileID
	}
	if len(p.CanonicalFields) == 0 {
		return ErrEmptyCanonicalFields
	}

	for field, name := range p.Normalizers {
		if !normalize.IsRegistered(normalize.Name(name)) {
			return fmt.Errorf("%w: field %q references %q", normalize.ErrUnknownNormalizer, field, name)
		}
	}

	return nil
}

// NormalizerFor returns the normalizer name configured for field and true,
// or "" and false if none is configured (the bundle builder then resolves
// that canonical field to the empty string).
func (p *Profile) NormalizerFor(field string) (normalize.Name, bool) {
	name, ok := p.Normalizers[field]
	return normalize.Name(name), ok
}
