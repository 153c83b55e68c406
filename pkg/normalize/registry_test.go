// Copyright 2025 Certen Protocol
//
// Normalizer Registry Tests

package normalize

import (
	"errors"
	"testing"
)

func TestTrimASCII(t *testing.T) {
	out, err := Apply(TrimASCII, "name", "  Example.COM  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Example.COM" {
		t.Errorf("got %q, want %q", out, "Example.COM")
	}
}

func TestIDNALowerStripTrailingDot(t *testing.T) {
	out, err := Apply(IDNALowerStripTrailingDot, "domain", " Example.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "example.com" {
		t.Errorf("got %q, want %q", out, "example.com")
	}
}

func TestLowerHex_InvalidFormat(t *testing.T) {
	_, err := Apply(LowerHex, "txid", "0xAB")
	if err == nil {
		t.Fatal("expected InvalidFormatError")
	}
	var ife *InvalidFormatError
	if !errors.As(err, &ife) {
		t.Fatalf("expected *InvalidFormatError, got %T: %v", err, err)
	}
	if ife.Field != "txid" || ife.Rule != LowerHex {
		t.Errorf("unexpected error fields: %+v", ife)
	}
}

func TestLowerHex_Valid(t *testing.T) {
	valid := "0x" + repeat("1", 64)
	out, err := Apply(LowerHex, "txid", "0X"+repeat("1", 64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != valid {
		t.Errorf("got %q, want %q", out, valid)
	}
}

func TestLowerAddressOptional_Empty(t *testing.T) {
	out, err := Apply(LowerAddressOptional, "address", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty string, got %q", out)
	}
}

func TestLowerAddressOptional_Invalid(t *testing.T) {
	_, err := Apply(LowerAddressOptional, "address", "0xdead")
	var ife *InvalidFormatError
	if !errors.As(err, &ife) {
		t.Fatalf("expected *InvalidFormatError, got %v", err)
	}
}

func TestISO8601ToUTC(t *testing.T) {
	out, err := Apply(ISO8601ToUTC, "ts", "2026-01-17T10:30:00+08:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2026-01-17T02:30:00Z" {
		t.Errorf("got %q, want %q", out, "2026-01-17T02:30:00Z")
	}
}

func TestISO8601ToUTC_ZSuffix(t *testing.T) {
	out, err := Apply(ISO8601ToUTC, "ts", "2026-01-17T02:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2026-01-17T02:30:00Z" {
		t.Errorf("got %q, want %q", out, "2026-01-17T02:30:00Z")
	}
}

func TestDecimalString(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"123.45", false},
		{"123", false},
		{"-1", true},
		{"abc", true},
		{"", true},
	}
	for _, c := range cases {
		_, err := Apply(DecimalString, "amount", c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("decimal_string(%q): got err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
	}
}

func TestDecimalStringOptional_Empty(t *testing.T) {
	out, err := Apply(DecimalStringOptional, "amount", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty string, got %q", out)
	}
}

func TestLowerEnum(t *testing.T) {
	out, err := Apply(LowerEnum, "status", "PENDING")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "pending" {
		t.Errorf("got %q, want %q", out, "pending")
	}
}

func TestUnknownNormalizer(t *testing.T) {
	_, err := Apply(Name("not_a_real_normalizer"), "field", "value")
	if !errors.Is(err, ErrUnknownNormalizer) {
		t.Errorf("expected ErrUnknownNormalizer, got %v", err)
	}
}

func TestIsRegistered(t *testing.T) {
	if !IsRegistered(DeterministicJSONOptional) {
		t.Error("deterministic_json_optional should be registered")
	}
	if IsRegistered(Name("bogus")) {
		t.Error("bogus should not be registered")
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s[0])
	}
	return string(out)
}
