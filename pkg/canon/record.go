// Copyright 2025 Certen Protocol
//
// Record canonicalization per core spec section 4.3: joining a record's
// normalized canonical_fields values into one deterministic byte sequence.
package canon

import (
	"strings"

	"github.com/certen/proof-bundle/pkg/merkle"
)

// Assemble joins the normalized values for fields, in the given order, with
// separator between adjacent values and lineEnding appended at the end, and
// returns the UTF-8 canonical bytes (core spec section 4.3 step 2). Missing
// entries in normalized resolve to the empty string, matching the rule that
// canonical_fields not present on the record are treated as empty input.
func Assemble(fields []string, normalized map[string]string, separator, lineEnding string) []byte {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = normalized[f]
	}
	return []byte(strings.Join(values, separator) + lineEnding)
}

// Leaf returns the lowercase-hex leaf hash of canonical bytes (core spec
// section 3, "Leaf").
func Leaf(canonicalBytes []byte) string {
	return merkle.HashBytes(canonicalBytes)
}
