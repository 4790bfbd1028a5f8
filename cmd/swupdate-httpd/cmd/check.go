package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/swupdate-httpd/internal/service/checker"
	"github.com/oshokin/swupdate-httpd/internal/service/common"
)

var (
	// checkOptions collects the flags of the check command.
	checkOptions = &checker.Options{
		Timeout: common.DefaultTimeout,
	}

	// checkCmd asks a running server whether an update is available.
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Ask an update server whether an update is available.",
		Long: `Queries a running swupdate-httpd the way an SWUpdate client does and prints the answer.

With --target the offered image is downloaded and atomically replaces the target file.
The command fails when the server reports an error or rejects the request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			checkOptions.Out = cmd.OutOrStdout()

			_, err := checker.Run(ctx, checkOptions)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := checkCmd.Flags()
	flags.StringVarP(&checkOptions.ServerURL, "server", "s", "http://127.0.0.1:8080", "update server root URL")
	flags.StringVar(&checkOptions.Request.Image, "image", "", "image identifier")
	flags.StringVar(&checkOptions.Request.Device, "device", "", "device type")
	flags.StringVar(&checkOptions.Request.CurrentVersion, "current-version", "", "currently installed version")
	flags.StringVarP(&checkOptions.Target, "target", "t", "", "file to replace with the downloaded image")
	flags.DurationVar(&checkOptions.Timeout, "timeout", common.DefaultTimeout, "timeout of the update check")

	for _, name := range []string{"image", "device", "current-version"} {
		_ = checkCmd.MarkFlagRequired(name)
	}
}
