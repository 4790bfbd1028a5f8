//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
)

// DefaultTimeout is the default duration for a single HTTP call.
const DefaultTimeout = 30 * time.Second

// Client talks to an update server over HTTP.
type Client struct {
	// baseURL is the server root, e.g. http://updates.local:8080/.
	baseURL *url.URL
	// http performs the requests; redirects are never followed.
	http *http.Client

	// callTimeout is the default timeout for individual calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// CheckResult is what the server answered to an update check.
type CheckResult struct {
	// Outcome tells whether an update is available.
	Outcome update.Outcome
	// ArtifactURL is the absolute download URL when an update is available.
	ArtifactURL string
}

// ServerError is returned when the server fails to resolve an update.
type ServerError struct {
	// StatusCode is the HTTP status returned by the server.
	StatusCode int
	// Diagnostic is the content of the X-Error header, if any.
	Diagnostic string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("update server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("update server error: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Diagnostic)
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// ErrRejected is returned when the server refuses a malformed request.
	ErrRejected = errors.New("update server rejected the request")
	// errNoLocation is returned when a redirect carries no Location header.
	errNoLocation = errors.New("redirect without location")
	// errBadHTTPStatus is returned for statuses outside the update protocol.
	errBadHTTPStatus = errors.New("unexpected http status")
)

// New creates a client for the update server at address.
func New(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	baseURL, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("server address %q: %w", address, errAddressRequired)
	}

	client := &Client{
		baseURL: baseURL,
		http: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		callTimeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// CheckForUpdate asks the server whether req has an update.
func (c *Client) CheckForUpdate(ctx context.Context, req update.Request) (*CheckResult, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	endpoint := c.endpoint()
	endpoint.RawQuery = url.Values{
		update.ParamImage:          {req.Image},
		update.ParamDevice:         {req.Device},
		update.ParamCurrentVersion: {req.CurrentVersion},
	}.Encode()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("check for update: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusFound:
		location, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errNoLocation, err)
		}

		return &CheckResult{
			Outcome:     update.UpdateAvailable,
			ArtifactURL: location.String(),
		}, nil
	case resp.StatusCode == http.StatusNotFound:
		return &CheckResult{Outcome: update.NoUpdateAvailable}, nil
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Header.Get(update.ErrorHeader))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Diagnostic: resp.Header.Get(update.ErrorHeader),
		}
	default:
		return nil, fmt.Errorf("%s: %w", resp.Status, errBadHTTPStatus)
	}
}

// Download fetches an artifact. The caller must close the returned body.
// The call timeout does not apply because artifacts may be large.
func (c *Client) Download(ctx context.Context, artifactURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", artifactURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", artifactURL, resp.Status, errBadHTTPStatus)
	}

	return resp.Body, nil
}

// endpoint returns the update endpoint URL, keeping any path prefix of the server address.
func (c *Client) endpoint() *url.URL {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/"
	endpoint.RawPath = ""
	endpoint.RawQuery = ""
	endpoint.Fragment = ""

	return &endpoint
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
