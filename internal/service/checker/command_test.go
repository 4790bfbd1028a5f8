package checker

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
)

const artifactLocation = "/images/app_deviceA_1.1.0.bin"

// newUpdateServer serves a fixed answer on / and one artifact under /images.
func newUpdateServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	return newRedirectingServer(t, status, artifactLocation)
}

// newRedirectingServer answers / with status, pointing redirects at location.
func newRedirectingServer(t *testing.T, status int, location string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		if status == http.StatusFound {
			w.Header().Set("Location", location)
		}

		w.WriteHeader(status)
	})
	mux.HandleFunc(artifactLocation, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("new-firmware"))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

var request = update.Request{
	Image:          "app",
	Device:         "deviceA",
	CurrentVersion: "1.0.0",
}

// TestRun_NoUpdate prints the answer and leaves the target alone.
func TestRun_NoUpdate(t *testing.T) {
	t.Parallel()

	ts := newUpdateServer(t, http.StatusNotFound)
	target := filepath.Join(t.TempDir(), "firmware.bin")

	var out bytes.Buffer

	result, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Target:    target,
		Out:       &out,
	})
	require.NoError(t, err)
	require.Equal(t, update.NoUpdateAvailable, result.Outcome)
	require.Equal(t, "No update available\n", out.String())

	_, err = os.Stat(target)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_AppliesUpdate downloads the artifact and replaces the target.
func TestRun_AppliesUpdate(t *testing.T) {
	t.Parallel()

	ts := newUpdateServer(t, http.StatusFound)
	target := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(target, []byte("old-firmware"), 0o600))

	var out bytes.Buffer

	result, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Target:    target,
		Out:       &out,
	})
	require.NoError(t, err)
	require.Equal(t, update.UpdateAvailable, result.Outcome)
	require.Contains(t, out.String(), "Update available: "+ts.URL+"/images/app_deviceA_1.1.0.bin")
	require.Contains(t, out.String(), "Applied update to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new-firmware", string(data))
}

// TestRun_AppliesUpdateToMissingTarget creates the target first.
func TestRun_AppliesUpdateToMissingTarget(t *testing.T) {
	t.Parallel()

	ts := newUpdateServer(t, http.StatusFound)
	target := filepath.Join(t.TempDir(), "firmware.bin")

	_, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Target:    target,
		Out:       new(bytes.Buffer),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new-firmware", string(data))
}

// TestRun_DownloadFailureLeavesNoTarget keeps a missing target missing when the artifact is gone.
func TestRun_DownloadFailureLeavesNoTarget(t *testing.T) {
	t.Parallel()

	ts := newRedirectingServer(t, http.StatusFound, "/images/gone.bin")
	target := filepath.Join(t.TempDir(), "firmware.bin")

	_, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Target:    target,
		Out:       new(bytes.Buffer),
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "404")

	_, err = os.Stat(target)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_DownloadFailureKeepsExistingTarget leaves the installed file untouched.
func TestRun_DownloadFailureKeepsExistingTarget(t *testing.T) {
	t.Parallel()

	ts := newRedirectingServer(t, http.StatusFound, "/images/gone.bin")
	target := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(target, []byte("old-firmware"), 0o600))

	_, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Target:    target,
		Out:       new(bytes.Buffer),
	})
	require.Error(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "old-firmware", string(data))
}

// TestRun_ServerError surfaces 500 answers as errors.
func TestRun_ServerError(t *testing.T) {
	t.Parallel()

	ts := newUpdateServer(t, http.StatusInternalServerError)

	_, err := Run(context.Background(), &Options{
		ServerURL: ts.URL,
		Request:   request,
		Out:       new(bytes.Buffer),
	})
	require.Error(t, err)

	_, err = Run(context.Background(), &Options{ServerURL: ts.URL, Request: request})
	require.ErrorIs(t, err, errNoOutput)
}
