// Copyright 2025 Certen Protocol

package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body  []byte
	found bool
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, remoteURL, date string) ([]byte, bool, error) {
	return f.body, f.found, f.err
}

func TestCheck_NoRemoteConfigured(t *testing.T) {
	err := Check(context.Background(), &fakeFetcher{}, "", "2026-01-17", "digest")
	require.NoError(t, err)
}

func TestCheck_NotFoundPermitsFirstPublication(t *testing.T) {
	err := Check(context.Background(), &fakeFetcher{found: false}, "http://remote", "2026-01-17", "digest")
	require.NoError(t, err)
}

func TestCheck_MatchingDigestPasses(t *testing.T) {
	f := &fakeFetcher{found: true, body: []byte(`{"daily_root_sha256":"abc"}`)}
	err := Check(context.Background(), f, "http://remote", "2026-01-17", "abc")
	require.NoError(t, err)
}

func TestCheck_DivergentDigestFails(t *testing.T) {
	f := &fakeFetcher{found: true, body: []byte(`{"daily_root_sha256":"abc"}`)}
	err := Check(context.Background(), f, "http://remote", "2026-01-17", "different")

	var violation *AppendOnlyViolationError
	require.True(t, errors.As(err, &violation))
	require.Equal(t, "abc", violation.RemoteDigest)
	require.Equal(t, "different", violation.LocalDigest)
}

func TestCheck_TransportErrorFailsClosed(t *testing.T) {
	f := &fakeFetcher{err: &RemoteUnavailableError{URL: "http://remote", Cause: errors.New("timeout")}}
	err := Check(context.Background(), f, "http://remote", "2026-01-17", "digest")

	var unavailable *RemoteUnavailableError
	require.True(t, errors.As(err, &unavailable))
}
