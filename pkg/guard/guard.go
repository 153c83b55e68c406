// Copyright 2025 Certen Protocol
//
// Append-only guard — core spec section 4.7. Compares a local bundle's
// manifest digest against the remote manifest for the same date, if one
// is configured and reachable, and rejects any divergence before
// publication. Grounded on original_source/builder/append_only_guard.py
// for control flow and on the teacher's narrow HTTP-collaborator pattern
// (an interface wrapping net/http, constructed with a context and
// timeout) so tests can inject a fake transport.
package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteFetcher fetches the previously published manifest for a date.
// Fetch returns (body, found=true, nil) on 2xx, (nil, false, nil) on a
// well-formed "not found" response, and a non-nil error for anything
// else (core spec section 5: transport errors fail RemoteUnavailable,
// not-found is treated as no prior publication).
type RemoteFetcher interface {
	Fetch(ctx context.Context, remoteURL, date string) (body []byte, found bool, err error)
}

// HTTPFetcher is the default RemoteFetcher, issuing
// "<remoteURL>/proofs/<date>/manifest.json" as an HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch implements RemoteFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, remoteURL, date string) ([]byte, bool, error) {
	url := fmt.Sprintf("%s/proofs/%s/manifest.json", remoteURL, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &RemoteUnavailableError{URL: url, Cause: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, false, &RemoteUnavailableError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &RemoteUnavailableError{URL: url, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &RemoteUnavailableError{URL: url, Cause: err}
	}
	return body, true, nil
}

// remoteManifestDigest is the subset of manifest.json this guard needs to
// compare against the local digest.
type remoteManifestDigest struct {
	DailyRootSHA256 string `json:"daily_root_sha256"`
}

// Check compares localDigest (the SHA-256 of the local manifest.json, or
// its daily_root_sha256 field — callers should be consistent about which)
// against the remote manifest for date, if remoteURL is non-empty. An
// absent local or remote manifest is permitted (first publication);
// transport errors fail closed with RemoteUnavailableError.
func Check(ctx context.Context, fetcher RemoteFetcher, remoteURL, date, localDigest string) error {
	if remoteURL == "" {
		return nil
	}

	body, found, err := fetcher.Fetch(ctx, remoteURL, date)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var remote remoteManifestDigest
	if err := json.Unmarshal(body, &remote); err != nil {
		return &RemoteUnavailableError{URL: remoteURL, Cause: fmt.Errorf("parse remote manifest: %w", err)}
	}

	if remote.DailyRootSHA256 != localDigest {
		return &AppendOnlyViolationError{
			Date:         date,
			LocalDigest:  localDigest,
			RemoteDigest: remote.DailyRootSHA256,
		}
	}
	return nil
}
