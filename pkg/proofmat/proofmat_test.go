// Copyright 2025 Certen Protocol

package proofmat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/proof-bundle/pkg/merkle"
)

func buildTestTree(t *testing.T, n int) *merkle.Tree {
	t.Helper()
	leaves := make([]string, n)
	for i := 0; i < n; i++ {
		leaves[i] = merkle.HashBytes([]byte{byte(i)})
	}
	tree, err := merkle.BuildTree(leaves)
	require.NoError(t, err)
	return tree
}

func TestMaterialize_WritesOneFilePerLeaf(t *testing.T) {
	tree := buildTestTree(t, 10)
	dir := t.TempDir()

	idx, err := Materialize(tree, dir, 5)
	require.NoError(t, err)
	require.Equal(t, 10, idx.TotalRecords)
	require.Equal(t, tree.Root(), idx.MerkleRoot)
	require.Len(t, idx.Proofs, 10)

	for i := 0; i < 10; i++ {
		_, err := os.Stat(filepath.Join(dir, idx.Proofs[i].ProofFile))
		require.NoError(t, err)
	}
}

func TestMaterialize_SampleCappedAtTotal(t *testing.T) {
	tree := buildTestTree(t, 3)
	dir := t.TempDir()

	idx, err := Materialize(tree, dir, 5)
	require.NoError(t, err)
	require.Equal(t, 3, idx.TotalRecords)
}

func TestSampleIndices_Deterministic(t *testing.T) {
	a := sampleIndices(100, 5)
	b := sampleIndices(100, 5)
	require.Equal(t, a, b)
	require.LessOrEqual(t, len(a), 5)
}

func TestSampleIndices_SmallTotal(t *testing.T) {
	indices := sampleIndices(2, 5)
	require.LessOrEqual(t, len(indices), 2)
	for _, i := range indices {
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 2)
	}
}
