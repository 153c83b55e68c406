// Copyright 2025 Certen Protocol
//
// Core spec constants — core spec section 6, published unchanged in every
// bundle's core_spec.json.

package bundle

// CoreSpecVersion is the fixed version string stamped into every bundle.
const CoreSpecVersion = "1.2.1"

// CoreSpec is the authoritative set of constants governing hashing,
// encoding, and tree shape, written verbatim into core_spec.json.
type CoreSpec struct {
	CoreSpecVersion string `json:"core_spec_version"`
	Hash            string `json:"hash"`
	Merkle          string `json:"merkle"`
	OddLeaf         string `json:"odd_leaf"`
	Hex             string `json:"hex"`
	Encoding        string `json:"encoding"`
	LineEnding      string `json:"canonical_line_ending"`
	RecordSeparator string `json:"canonical_record_separator"`
}

// NewCoreSpec builds the core spec constants for a bundle using the
// profile's chosen separator and line ending.
func NewCoreSpec(separator, lineEnding string) CoreSpec {
	return CoreSpec{
		CoreSpecVersion: CoreSpecVersion,
		Hash:            "sha256",
		Merkle:          "binary",
		OddLeaf:         "duplicate_last",
		Hex:             "lowercase",
		Encoding:        "utf-8",
		LineEnding:      lineEnding,
		RecordSeparator: separator,
	}
}
