// Copyright 2025 Certen Protocol
//
// Checkpoint chaining — core spec section 3 ("Checkpoint") and the open
// question in section 9: the source writes a fixed 63-character zero
// string for prev_checkpoint_sha256 on first bundle and never defines
// where a later bundle reads the previous one from. Per section 9's
// explicit instruction not to invent a policy silently, this module does
// exactly what the source does and no more: it always writes the fixed
// zero string unless a caller supplies PrevCheckpointSHA256 explicitly.

package bundle

import "strings"

// zeroCheckpointDigest is the fixed placeholder written when no prior
// checkpoint digest is supplied.
var zeroCheckpointDigest = strings.Repeat("0", 63)

// Checkpoint is the append-only chain anchor for one published day.
type Checkpoint struct {
	Version              int    `json:"version"`
	Date                 string `json:"date"`
	ManifestSHA256       string `json:"manifest_sha256"`
	DailyRoot            string `json:"daily_root"`
	PrevCheckpointSHA256 string `json:"prev_checkpoint_sha256"`
}

// NewCheckpoint builds the checkpoint for one bundle. prevCheckpointSHA256
// is the caller-supplied chaining hook (Options.PrevCheckpointSHA256); an
// empty value falls back to the fixed zero placeholder rather than this
// module inventing a discovery policy.
func NewCheckpoint(date, manifestSHA256, dailyRoot, prevCheckpointSHA256 string) Checkpoint {
	if prevCheckpointSHA256 == "" {
		prevCheckpointSHA256 = zeroCheckpointDigest
	}
	return Checkpoint{
		Version:              1,
		Date:                 date,
		ManifestSHA256:       manifestSHA256,
		DailyRoot:            dailyRoot,
		PrevCheckpointSHA256: prevCheckpointSHA256,
	}
}
