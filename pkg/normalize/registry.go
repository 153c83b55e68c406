// Copyright 2025 Certen Protocol
//
// Normalizer Registry
// Field-level value canonicalization rules for the ledger-publisher core
// spec section 4.2. Each normalizer is a deterministic, total function
// from an input value to a normalized string. The registry is closed:
// adding a normalizer is a specification change, not a runtime extension
// point, so unregistered names fail loudly at profile-load time rather
// than silently passing values through.

package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/certen/proof-bundle/pkg/canon"
)

// Name identifies a registered normalizer.
type Name string

const (
	TrimASCII                 Name = "trim_ascii"
	TrimASCIIOptional         Name = "trim_ascii_optional"
	Lower                     Name = "lower"
	Upper                     Name = "upper"
	IDNALowerStripTrailingDot Name = "idna_lower_strip_trailing_dot"
	LowerHex                  Name = "lower_hex"
	LowerAddressOptional      Name = "lower_address_optional"
	ISO8601ToUTC              Name = "iso8601_to_utc"
	DecimalString             Name = "decimal_string"
	DecimalStringOptional     Name = "decimal_string_optional"
	LowerEnum                 Name = "lower_enum"
	LowerEnumOptional         Name = "lower_enum_optional"
	DeterministicJSONOptional Name = "deterministic_json_optional"
)

// ErrUnknownNormalizer is returned when a profile references a normalizer
// name this registry does not recognize.
var ErrUnknownNormalizer = errors.New("unknown normalizer")

// InvalidFormatError reports a normalizer-level validation failure
// (core spec error kind InvalidFormat).
type InvalidFormatError struct {
	Field string
	Value string
	Rule  Name
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format for field %q: value %q does not satisfy rule %q", e.Field, e.Value, e.Rule)
}

var (
	hexRe     = regexp.MustCompile(`^0x[0-9a-f]{64}$`)
	addressRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)
	decimalRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

type normalizeFunc func(value string) (string, error)

var registry = map[Name]normalizeFunc{
	TrimASCII:                 trimASCII,
	TrimASCIIOptional:         optional(trimASCII),
	Lower:                     lowerFold,
	Upper:                     upperFold,
	IDNALowerStripTrailingDot: idnaLowerStripTrailingDot,
	LowerHex:                  lowerHex,
	LowerAddressOptional:      optional(lowerAddress),
	ISO8601ToUTC:              iso8601ToUTC,
	DecimalString:             decimalString,
	DecimalStringOptional:     optional(decimalString),
	LowerEnum:                 lowerEnum,
	LowerEnumOptional:         optional(lowerEnum),
	// deterministic_json_optional is handled separately by ApplyJSON: it
	// takes a structured value, not a string, so it cannot live in the
	// string->string registry above.
}

// IsRegistered reports whether name is a recognized normalizer, including
// deterministic_json_optional (which Apply cannot itself execute).
func IsRegistered(name Name) bool {
	if name == DeterministicJSONOptional {
		return true
	}
	_, ok := registry[name]
	return ok
}

// Apply runs the named normalizer against value. deterministic_json_optional
// cannot be applied through this entry point — structured input does not
// fit the string->string shape — use ApplyJSON instead; calling Apply with
// that name returns ErrUnknownNormalizer to fail safely rather than
// mis-normalize.
func Apply(name Name, field, value string) (string, error) {
	fn, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNormalizer, name)
	}
	out, err := fn(value)
	if err != nil {
		var ife *InvalidFormatError
		if errors.As(err, &ife) {
			ife.Field = field
			return "", ife
		}
		return "", err
	}
	return out, nil
}

// ApplyJSON runs deterministic_json_optional against raw JSON bytes. It is
// the only normalizer that accepts structured input, so it lives outside
// the string->string registry; Apply cannot reach it.
func ApplyJSON(field string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	out, err := canon.MarshalJSON(raw)
	if err != nil {
		return "", &InvalidFormatError{Field: field, Value: string(raw), Rule: DeterministicJSONOptional}
	}
	return string(out), nil
}

func optional(fn normalizeFunc) normalizeFunc {
	return func(value string) (string, error) {
		if value == "" {
			return "", nil
		}
		return fn(value)
	}
}

func trimASCII(value string) (string, error) {
	const asciiWhitespace = " \t\n\v\f\r"
	return strings.Trim(value, asciiWhitespace), nil
}

func lowerFold(value string) (string, error) {
	return strings.ToLower(value), nil
}

func upperFold(value string) (string, error) {
	return strings.ToUpper(value), nil
}

// idnaLowerStripTrailingDot IDNA-encodes a domain to its A-label ASCII
// form, lowercases it, and removes one trailing dot.
func idnaLowerStripTrailingDot(value string) (string, error) {
	trimmed, _ := trimASCII(value)
	encoded, err := idna.Lookup.ToASCII(trimmed)
	if err != nil {
		// Not every input is a syntactically valid domain under strict
		// lookup rules; fall back to the raw value so downstream
		// lowercase/trailing-dot handling still applies deterministically.
		encoded = trimmed
	}
	encoded = strings.ToLower(encoded)
	encoded = strings.TrimSuffix(encoded, ".")
	return encoded, nil
}

func lowerHex(value string) (string, error) {
	lowered := strings.ToLower(value)
	if !hexRe.MatchString(lowered) {
		return "", &InvalidFormatError{Value: value, Rule: LowerHex}
	}
	return lowered, nil
}

func lowerAddress(value string) (string, error) {
	lowered := strings.ToLower(value)
	if !addressRe.MatchString(lowered) {
		return "", &InvalidFormatError{Value: value, Rule: LowerAddressOptional}
	}
	return lowered, nil
}

// iso8601ToUTC parses an ISO-8601 timestamp (accepting a trailing "Z"),
// converts it to UTC, and emits YYYY-MM-DDTHH:MM:SSZ.
func iso8601ToUTC(value string) (string, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
	}

	var parsed time.Time
	var err error
	for _, layout := range layouts {
		parsed, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", &InvalidFormatError{Value: value, Rule: ISO8601ToUTC}
	}

	return parsed.UTC().Format("2006-01-02T15:04:05Z"), nil
}

func decimalString(value string) (string, error) {
	if !decimalRe.MatchString(value) {
		return "", &InvalidFormatError{Value: value, Rule: DecimalString}
	}
	return value, nil
}

func lowerEnum(value string) (string, error) {
	// Enum membership is enforced upstream by the profile schema; this
	// normalizer only case-folds.
	return strings.ToLower(value), nil
}
