//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
)

var request = update.Request{
	Image:          "app",
	Device:         "deviceA",
	CurrentVersion: "1.0.0",
}

// TestNew_ValidatesAddress verifies that New rejects empty and relative addresses.
func TestNew_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := New("")
	require.Error(t, err)
	require.Nil(t, c)

	_, err = New("updates.local:8080")
	require.Error(t, err)

	c, err = New("http://updates.local:8080", WithCallTimeout(time.Second))
	require.NoError(t, err)
	require.Equal(t, time.Second, c.callTimeout)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_CheckForUpdate maps every status of the update protocol.
func TestClient_CheckForUpdate(t *testing.T) {
	t.Parallel()

	var status atomic.Int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		require.Equal(t, "app", query.Get("image"))
		require.Equal(t, "deviceA", query.Get("device"))
		require.Equal(t, "1.0.0", query.Get("current_version"))

		switch status.Load() {
		case http.StatusFound:
			w.Header().Set("Location", "/images/app_deviceA_1.1.0.bin")
		case http.StatusInternalServerError:
			w.Header().Set("X-Error", "More than one matching update image: a, b")
		case http.StatusBadRequest:
			w.Header().Set("X-Error", "missing query parameters: image")
		}

		w.WriteHeader(int(status.Load()))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	status.Store(http.StatusFound)
	got, err := c.CheckForUpdate(context.Background(), request)
	require.NoError(t, err)
	require.Equal(t, update.UpdateAvailable, got.Outcome)
	require.Equal(t, ts.URL+"/images/app_deviceA_1.1.0.bin", got.ArtifactURL)

	status.Store(http.StatusNotFound)
	got, err = c.CheckForUpdate(context.Background(), request)
	require.NoError(t, err)
	require.Equal(t, update.NoUpdateAvailable, got.Outcome)

	status.Store(http.StatusInternalServerError)
	_, err = c.CheckForUpdate(context.Background(), request)

	var serverErr *ServerError
	require.True(t, errors.As(err, &serverErr))
	require.Equal(t, "More than one matching update image: a, b", serverErr.Diagnostic)

	status.Store(http.StatusBadRequest)
	_, err = c.CheckForUpdate(context.Background(), request)
	require.ErrorIs(t, err, ErrRejected)

	status.Store(http.StatusTeapot)
	_, err = c.CheckForUpdate(context.Background(), request)
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestClient_Download returns the body for 200 and an error otherwise.
func TestClient_Download(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/a.bin" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	body, err := c.Download(context.Background(), ts.URL+"/images/a.bin")
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, "payload", string(data))

	_, err = c.Download(context.Background(), ts.URL+"/images/missing.bin")
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestClient_CheckForUpdate_PathPrefix reaches a server mounted below a path prefix.
func TestClient_CheckForUpdate_PathPrefix(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/updates/{$}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "app", r.URL.Query().Get(update.ParamImage))
		w.Header().Set("Location", "/updates/images/app_deviceA_1.1.0.bin")
		w.WriteHeader(http.StatusFound)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	for _, address := range []string{ts.URL + "/updates/", ts.URL + "/updates"} {
		c, err := New(address)
		require.NoError(t, err)

		result, err := c.CheckForUpdate(context.Background(), request)
		require.NoError(t, err, address)
		require.Equal(t, update.UpdateAvailable, result.Outcome, address)
		require.Equal(t, ts.URL+"/updates/images/app_deviceA_1.1.0.bin", result.ArtifactURL, address)
	}

	c, err := New(ts.URL)
	require.NoError(t, err)
	require.Equal(t, ts.URL+"/", c.endpoint().String())
}
