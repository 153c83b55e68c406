// Copyright 2025 Certen Protocol
//
// Proof materializer — core spec section 4.8. Grounded on
// pkg/merkle/tree.go's GenerateProof/VerifyProof pair plus
// original_source/builder/generate_proofs.py's "sample and re-verify"
// step, translated from random.sample to a deterministic, index-striped
// sample so the self-check is reproducible without a random source.
package proofmat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/certen/proof-bundle/pkg/merkle"
)

// IndexEntry is one record's line in proof_index.json.
type IndexEntry struct {
	RecordIndex int    `json:"record_index"`
	ProofFile   string `json:"proof_file"`
	LeafHash    string `json:"leaf_hash"`
}

// Index is the full proof_index.json document.
type Index struct {
	Version      int          `json:"version"`
	TotalRecords int          `json:"total_records"`
	MerkleRoot   string       `json:"merkle_root"`
	Proofs       []IndexEntry `json:"proofs"`
}

// Materialize generates a proof for every leaf of tree, writes
// "<proofsDir>/<i>.json" for each, re-verifies a deterministic sample of
// at least minSample proofs (capped at the leaf count), and returns the
// proof index (callers still need to write it to proof_index.json).
func Materialize(tree *merkle.Tree, proofsDir string, minSample int) (*Index, error) {
	if err := os.MkdirAll(proofsDir, 0o755); err != nil {
		return nil, fmt.Errorf("proofmat: create %s: %w", proofsDir, err)
	}

	total := tree.LeafCount()
	entries := make([]IndexEntry, total)
	proofs := make([]*merkle.Proof, total)

	for i := 0; i < total; i++ {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			return nil, fmt.Errorf("proofmat: generate proof %d: %w", i, err)
		}
		proofs[i] = proof

		data, err := proof.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("proofmat: encode proof %d: %w", i, err)
		}

		fileName := fmt.Sprintf("%d.json", i)
		if err := os.WriteFile(filepath.Join(proofsDir, fileName), appendNewline(data), 0o644); err != nil {
			return nil, fmt.Errorf("proofmat: write proof %d: %w", i, err)
		}

		entries[i] = IndexEntry{RecordIndex: i, ProofFile: fileName, LeafHash: proof.LeafHash}
	}

	for _, i := range sampleIndices(total, minSample) {
		ok, err := proofs[i].Verify(tree.Root())
		if err != nil {
			return nil, fmt.Errorf("proofmat: verify sampled proof %d: %w", i, err)
		}
		if !ok {
			return nil, &ProofSelfCheckFailedError{Index: i}
		}
	}

	return &Index{
		Version:      1,
		TotalRecords: total,
		MerkleRoot:   tree.Root(),
		Proofs:       entries,
	}, nil
}

// ToJSON serializes idx with a trailing newline, matching the core
// spec's "trailing newline on each top-level JSON file" rule.
func (idx *Index) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, err
	}
	return appendNewline(data), nil
}

func appendNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return data
	}
	return append(data, '\n')
}

// sampleIndices picks a deterministic, evenly-striped subset of
// [0, total) of size min(minSample, total). Striping rather than taking
// the first N indices exercises proofs from across the tree, not just
// one corner of it.
func sampleIndices(total, minSample int) []int {
	if total == 0 {
		return nil
	}
	n := minSample
	if n > total {
		n = total
	}
	if n <= 0 {
		return nil
	}

	seen := make(map[int]bool, n)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx := (i * total) / n
		if idx >= total {
			idx = total - 1
		}
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out
}
