package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
	"github.com/oshokin/swupdate-httpd/internal/logger"
	"github.com/oshokin/swupdate-httpd/internal/service/common"
)

// Options controls a single update check.
type Options struct {
	// ServerURL is the root URL of the update server.
	ServerURL string
	// Request is the image, device and installed version to check.
	Request update.Request
	// Target, when set, is replaced by the downloaded artifact.
	Target string
	// TargetMode is the file mode of the replaced target.
	TargetMode os.FileMode
	// Timeout is the per-call timeout of the update check.
	Timeout time.Duration
	// Out receives the human-readable result.
	Out io.Writer
}

// DefaultTargetMode is used when no mode is given for the replaced target.
const DefaultTargetMode os.FileMode = 0o644

var errNoOutput = errors.New("output writer is not set")

// Run checks the server for an update and, if a target is configured, applies it.
// It returns the server's answer so callers can script on it.
func Run(ctx context.Context, opts *Options) (*common.CheckResult, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "swupdate-check")

	if opts.Out == nil {
		return nil, errNoOutput
	}

	client, err := common.New(opts.ServerURL, common.WithCallTimeout(opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	logger.InfoKV(ctx, "Checking for update",
		"server", opts.ServerURL,
		"image", opts.Request.Image,
		"device", opts.Request.Device,
		"current_version", opts.Request.CurrentVersion,
	)

	result, err := client.CheckForUpdate(ctx, opts.Request)
	if err != nil {
		return nil, err
	}

	if result.Outcome != update.UpdateAvailable {
		_, _ = fmt.Fprintln(opts.Out, "No update available")
		return result, nil
	}

	_, _ = fmt.Fprintf(opts.Out, "Update available: %s\n", result.ArtifactURL)

	if opts.Target == "" {
		return result, nil
	}

	if err = apply(ctx, client, result.ArtifactURL, opts); err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(opts.Out, "Applied update to %s\n", opts.Target)

	return result, nil
}

// apply downloads the artifact and atomically swaps it in place of the target.
func apply(ctx context.Context, client *common.Client, artifactURL string, opts *Options) error {
	target := filepath.Clean(opts.Target)

	mode := opts.TargetMode
	if mode == 0 {
		mode = DefaultTargetMode
	}

	body, err := client.Download(ctx, artifactURL)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	// go-update renames the old file away first, so it must exist.
	created, err := ensureTarget(target, mode)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Applying update", "artifact", artifactURL, "target", target)

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: mode,
	}

	if err = goupdate.Apply(body, options); err != nil {
		if created {
			_ = os.Remove(target)
		}

		return fmt.Errorf("apply update: %w", err)
	}

	return nil
}

// ensureTarget creates an empty target file if none exists and reports whether it did.
func ensureTarget(target string, mode os.FileMode) (bool, error) {
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return false, fmt.Errorf("create target: %w", err)
	}

	_ = file.Close()

	return true, nil
}
