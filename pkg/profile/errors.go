// Copyright 2025 Certen Protocol
//
// Profile package errors

package profile

import "errors"

// Common errors for the profile package.
var (
	ErrNilProfile        = errors.New("profile cannot be nil")
	ErrEmptyProfileID     = errors.New("profile_id must not be empty")
	ErrEmptyCanonicalFields = errors.New("canonical_fields must not be empty")
)
