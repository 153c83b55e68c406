// Copyright 2025 Certen Protocol
//
// Record validation and normalization — core spec sections 4.2 and 4.3.

package bundle

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/certen/proof-bundle/pkg/canon"
	"github.com/certen/proof-bundle/pkg/normalize"
	"github.com/certen/proof-bundle/pkg/profile"
)

// Record is one input record: a mapping from field name to value. Values
// are strings except for fields normalized by deterministic_json_optional,
// which accept any JSON-marshalable structure.
type Record map[string]interface{}

// normalizedRecord holds the per-record products the builder needs: the
// normalized field map, the assembled canonical bytes, and the leaf hash.
type normalizedRecord struct {
	normalized map[string]string
	canonical  []byte
	leaf       string
}

// validateRequired checks that every required_fields entry is present
// with a non-empty string value.
func validateRequired(r Record, p *profile.Profile, index int) error {
	for _, field := range p.RequiredFields {
		v, ok := r[field]
		if !ok {
			return &MissingRequiredFieldError{RecordIndex: index, Field: field}
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return &MissingRequiredFieldError{RecordIndex: index, Field: field}
		}
	}
	return nil
}

// normalizeAndCanonicalize validates required fields, applies the profile's normalizers to every canonical_fields
// entry and assembles the canonical byte sequence and leaf hash.
func normalizeAndCanonicalize(r Record, p *profile.Profile, index int) (*normalizedRecord, error) {
	if err := validateRequired(r, p, index); err != nil {
		return nil, err
	}

	normalized := make(map[string]string, len(p.CanonicalFields))
	for _, field := range p.CanonicalFields {
		value, present := r[field]

		name, hasNormalizer := p.NormalizerFor(field)
		if !hasNormalizer {
			// A canonical field with no normalizers entry has no defined
			// rule to apply, so it resolves to empty input rather than a
			// raw, un-normalized pass-through (build.py's normalize_record
			// only ever populates fields present in profile["normalizers"]
			// and force-fills everything else in canonical_fields to "").
			normalized[field] = ""
			continue
		}

		if name == normalize.DeterministicJSONOptional {
			raw, err := toJSONBytes(value, present)
			if err != nil {
				return nil, &InvalidFormatFieldError{RecordIndex: index, Err: err}
			}
			out, err := normalize.ApplyJSON(field, raw)
			if err != nil {
				return nil, &InvalidFormatFieldError{RecordIndex: index, Err: err}
			}
			normalized[field] = out
			continue
		}

		s, _ := value.(string)
		out, err := normalize.Apply(name, field, s)
		if err != nil {
			var ife *normalize.InvalidFormatError
			if errors.As(err, &ife) {
				return nil, &InvalidFormatFieldError{RecordIndex: index, Err: ife}
			}
			return nil, fmt.Errorf("record %d: field %q: %w", index, field, err)
		}
		normalized[field] = out
	}

	canonicalBytes := canon.Assemble(p.CanonicalFields, normalized, p.CanonicalRecordSeparator, p.CanonicalLineEnding)

	return &normalizedRecord{
		normalized: normalized,
		canonical:  canonicalBytes,
		leaf:       canon.Leaf(canonicalBytes),
	}, nil
}

// toJSONBytes turns a deterministic_json_optional field value into raw
// JSON bytes: a string is treated as already-encoded JSON text, any other
// present value is marshaled, and an absent field normalizes to "" (the
// optional variant's empty-input rule).
func toJSONBytes(value interface{}, present bool) ([]byte, error) {
	if !present || value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		if s == "" {
			return nil, nil
		}
		return []byte(s), nil
	}
	return json.Marshal(value)
}

// sortKey computes the tuple of values used to order records, per core
// spec section 4.5: canonical_bytes resolves to the canonical byte
// string, any other token resolves to the normalized field (empty if
// absent).
func sortKey(nr *normalizedRecord, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if k == profile.CanonicalBytesKey {
			out[i] = string(nr.canonical)
			continue
		}
		out[i] = nr.normalized[k]
	}
	return out
}
