// Copyright 2025 Certen Protocol
//
// Bundle builder — core spec section 4.5. Grounded on
// pkg/batch/collector.go's accumulate → validate → build tree → emit
// shape and pkg/batch/errors.go's plain error-variable style, adapted
// from transaction batching to daily record commitment. Each build is
// tagged with a google/uuid correlation ID threaded through every log
// line, the same pattern the teacher uses for batch IDs.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/certen/proof-bundle/pkg/guard"
	"github.com/certen/proof-bundle/pkg/manifest"
	"github.com/certen/proof-bundle/pkg/merkle"
	"github.com/certen/proof-bundle/pkg/metrics"
	"github.com/certen/proof-bundle/pkg/profile"
	"github.com/certen/proof-bundle/pkg/proofmat"
)

const defaultRecordsPerFile = 10000
const defaultProofSampleSize = 5

// Options configures one Build call.
type Options struct {
	Date       string // YYYY-MM-DD, UTC Gregorian calendar date
	OutputDir  string
	ProfileDir string

	RecordsPerFile  int // default 10000
	ProofSampleSize int // default 5

	// PrevCheckpointSHA256 is the chaining hook core spec section 9
	// leaves unresolved: the core never discovers a prior checkpoint on
	// its own. Leave empty to get the fixed placeholder.
	PrevCheckpointSHA256 string

	RemoteURL      string
	RemoteFetcher  guard.RemoteFetcher
	RequestTimeout time.Duration

	Logger *log.Logger
}

func (o *Options) applyDefaults() {
	if o.RecordsPerFile <= 0 {
		o.RecordsPerFile = defaultRecordsPerFile
	}
	if o.ProofSampleSize <= 0 {
		o.ProofSampleSize = defaultProofSampleSize
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = log.New(log.Writer(), "[Bundle] ", log.LstdFlags)
	}
	if o.RemoteFetcher == nil {
		o.RemoteFetcher = guard.NewHTTPFetcher(o.RequestTimeout)
	}
}

// Result is what a successful Build returns.
type Result struct {
	BundleDir string
	DailyRoot string
	Manifest  *manifest.Manifest
}

// Build runs the full pipeline of core spec section 4.5: validate,
// normalize, sort, canonicalize, commit to a Merkle tree, write the
// records, root, core spec, profile digest and materialized proofs,
// write the manifest (which lists the proof files) and checkpoint,
// self-check the root, enforce append-only, and publish the directory.
func Build(records []Record, p *profile.Profile, opts Options) (*Result, error) {
	if p == nil {
		return nil, ErrNilProfile
	}
	opts.applyDefaults()

	runID := uuid.New()
	logger := opts.Logger
	logger.Printf("[%s] build starting: date=%s records=%d profile=%s", runID, opts.Date, len(records), p.ProfileID)

	normalizedRecords, err := normalizeAll(records, p)
	if err != nil {
		metrics.BundlesBuilt.WithLabelValues("validation_failed").Inc()
		logger.Printf("[%s] build failed during normalization: %v", runID, err)
		return nil, err
	}
	metrics.RecordsProcessed.Add(float64(len(normalizedRecords)))

	order := sortedOrder(normalizedRecords, p.SortKeys)

	leaves := make([]string, len(order))
	sortedNormalized := make([]map[string]string, len(order))
	for i, idx := range order {
		leaves[i] = normalizedRecords[idx].leaf
		sortedNormalized[i] = normalizedRecords[idx].normalized
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		metrics.BundlesBuilt.WithLabelValues("empty_leaf_set").Inc()
		logger.Printf("[%s] build failed: %v", runID, err)
		return nil, err
	}
	root := tree.Root()

	bundleDir := filepath.Join(opts.OutputDir, "proofs", opts.Date)
	tempDir := bundleDir + ".building"
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, fmt.Errorf("bundle: clear stale temp dir %s: %w", tempDir, err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("bundle: create %s: %w", tempDir, err)
	}

	if err := writeRecordFiles(tempDir, sortedNormalized, p.CanonicalFields, opts.RecordsPerFile); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(tempDir, "daily_root.txt", []byte(root+"\n")); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	coreSpec := NewCoreSpec(p.CanonicalRecordSeparator, p.CanonicalLineEnding)
	coreSpecBytes, err := marshalWithNewline(coreSpec)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(tempDir, "core_spec.json", coreSpecBytes); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	coreSpecSHA256, _, err := manifest.HashFile(filepath.Join(tempDir, "core_spec.json"))
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	profileSHA256, err := manifest.ProfileDigest(opts.ProfileDir, p.ProfileID)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	profileDoc := map[string]string{
		"profile_id":      p.ProfileID,
		"profile_version": p.ProfileVersion,
		"profile_sha256":  profileSHA256,
	}
	profileDocBytes, err := marshalWithNewline(profileDoc)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(tempDir, "profile.json", profileDocBytes); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	proofsDir := filepath.Join(tempDir, "proofs")
	proofIndex, err := proofmat.Materialize(tree, proofsDir, opts.ProofSampleSize)
	if err != nil {
		os.RemoveAll(tempDir)
		metrics.ProofSelfCheckFailures.Inc()
		logger.Printf("[%s] build failed: %v", runID, err)
		return nil, err
	}
	indexBytes, err := proofIndex.ToJSON()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(proofsDir, "proof_index.json", indexBytes); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	m, err := manifest.Generate(tempDir, opts.Date, root, coreSpecSHA256, profileSHA256)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	manifestBytes, err := marshalWithNewline(m)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(tempDir, "manifest.json", manifestBytes); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	manifestSHA256, _, err := manifest.HashFile(filepath.Join(tempDir, "manifest.json"))
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	checkpoint := NewCheckpoint(opts.Date, manifestSHA256, root, opts.PrevCheckpointSHA256)
	checkpointBytes, err := marshalWithNewline(checkpoint)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := writeFile(tempDir, "checkpoint.json", checkpointBytes); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	if err := selfCheckRoot(tempDir, p, root); err != nil {
		os.RemoveAll(tempDir)
		metrics.BundlesBuilt.WithLabelValues("root_mismatch").Inc()
		logger.Printf("[%s] build failed: %v", runID, err)
		return nil, err
	}

	if err := enforceAppendOnly(bundleDir, m, opts); err != nil {
		os.RemoveAll(tempDir)
		metrics.BundlesBuilt.WithLabelValues("append_only_violation").Inc()
		logger.Printf("[%s] build rejected: %v", runID, err)
		return nil, err
	}

	if err := os.RemoveAll(bundleDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("bundle: remove prior bundle %s: %w", bundleDir, err)
	}
	if err := os.Rename(tempDir, bundleDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("bundle: publish %s: %w", bundleDir, err)
	}

	metrics.BundlesBuilt.WithLabelValues("success").Inc()
	logger.Printf("[%s] build complete: date=%s root=%s records=%d", runID, opts.Date, root, len(order))

	return &Result{BundleDir: bundleDir, DailyRoot: root, Manifest: m}, nil
}

func normalizeAll(records []Record, p *profile.Profile) ([]*normalizedRecord, error) {
	out := make([]*normalizedRecord, len(records))
	for i, r := range records {
		nr, err := normalizeAndCanonicalize(r, p, i)
		if err != nil {
			return nil, err
		}
		out[i] = nr
	}
	return out, nil
}

// sortedOrder returns the permutation of [0, len(records)) that sorts
// records by their computed sort keys, per core spec section 4.5.
func sortedOrder(records []*normalizedRecord, keys []string) []int {
	order := make([]int, len(records))
	sortKeys := make([][]string, len(records))
	for i, r := range records {
		order[i] = i
		sortKeys[i] = sortKey(r, keys)
	}

	sort.SliceStable(order, func(a, b int) bool {
		return compareKeys(sortKeys[order[a]], sortKeys[order[b]]) < 0
	})
	return order
}

func compareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return len(a) - len(b)
}

func writeRecordFiles(bundleDir string, records []map[string]string, fields []string, perFile int) error {
	for start := 0; start < len(records); start += perFile {
		end := start + perFile
		if end > len(records) {
			end = len(records)
		}
		chunkIndex := start / perFile

		var buf []byte
		for _, rec := range records[start:end] {
			line, err := json.Marshal(orderedRecordMap(rec, fields))
			if err != nil {
				return fmt.Errorf("bundle: encode record: %w", err)
			}
			buf = append(buf, line...)
			buf = append(buf, '\n')
		}

		name := fmt.Sprintf("records-%03d.jsonl", chunkIndex)
		if err := writeFile(bundleDir, name, buf); err != nil {
			return err
		}
	}
	return nil
}

// orderedRecordMap is a plain map; json.Marshal does not preserve
// insertion order for maps, but every conformant reader re-derives
// canonical bytes from the field set via the profile, not key order, so
// this is safe per the canonicalizer's own invariant (section 4.3).
func orderedRecordMap(rec map[string]string, fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = rec[f]
	}
	return out
}

func writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bundle: write %s: %w", path, err)
	}
	return nil
}

func marshalWithNewline(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bundle: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// selfCheckRoot re-reads the emitted records files, recomputes every leaf
// from its stored normalized fields, rebuilds the tree, and compares the
// result to writtenRoot (core spec section 4.5's post-write self-check).
func selfCheckRoot(bundleDir string, p *profile.Profile, writtenRoot string) error {
	matches, err := filepath.Glob(filepath.Join(bundleDir, "records-*.jsonl"))
	if err != nil {
		return fmt.Errorf("bundle: list record files: %w", err)
	}
	sort.Strings(matches)

	var leaves []string
	for _, path := range matches {
		recs, err := readRecordFile(path)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			canonicalBytes := assembleFromMap(rec, p.CanonicalFields, p.CanonicalRecordSeparator, p.CanonicalLineEnding)
			leaves = append(leaves, merkle.HashBytes(canonicalBytes))
		}
	}

	if len(leaves) == 0 {
		return merkle.ErrEmptyLeafSet
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return err
	}
	if tree.Root() != writtenRoot {
		return &RootMismatchError{Computed: tree.Root(), Written: writtenRoot}
	}
	return nil
}

func readRecordFile(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", path, err)
	}

	var out []map[string]string
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var rec map[string]string
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("bundle: parse %s: %w", path, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func assembleFromMap(rec map[string]string, fields []string, separator, lineEnding string) []byte {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = rec[f]
	}
	joined := ""
	for i, v := range values {
		if i > 0 {
			joined += separator
		}
		joined += v
	}
	return []byte(joined + lineEnding)
}

// enforceAppendOnly checks the new manifest against whatever was
// previously published for this date, locally and remotely, per core
// spec section 4.7.
func enforceAppendOnly(existingBundleDir string, newManifest *manifest.Manifest, opts Options) error {
	if priorPath := filepath.Join(existingBundleDir, "manifest.json"); fileExists(priorPath) {
		data, err := os.ReadFile(priorPath)
		if err != nil {
			return fmt.Errorf("bundle: read prior manifest: %w", err)
		}
		var prior manifest.Manifest
		if err := json.Unmarshal(data, &prior); err != nil {
			return fmt.Errorf("bundle: parse prior manifest: %w", err)
		}
		if prior.DailyRootSHA256 != newManifest.DailyRootSHA256 {
			return &guard.AppendOnlyViolationError{
				Date:         opts.Date,
				LocalDigest:  newManifest.DailyRootSHA256,
				RemoteDigest: prior.DailyRootSHA256,
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	err := guard.Check(ctx, opts.RemoteFetcher, opts.RemoteURL, opts.Date, newManifest.DailyRootSHA256)
	metrics.GuardCheckDuration.Observe(time.Since(start).Seconds())
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
