// Copyright 2025 Certen Protocol

package proofmat

import "fmt"

// ProofSelfCheckFailedError reports that a sampled proof failed
// re-verification during materialization (core spec section 4.8).
type ProofSelfCheckFailedError struct {
	Index int
}

func (e *ProofSelfCheckFailedError) Error() string {
	return fmt.Sprintf("proof self-check failed at record index %d", e.Index)
}
