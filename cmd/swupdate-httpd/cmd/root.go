package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/swupdate-httpd/internal/config"
	"github.com/oshokin/swupdate-httpd/internal/service/server"
	"github.com/oshokin/swupdate-httpd/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string
	// envFile is the optional dotenv file.
	envFile string

	// Flag values; only the ones set explicitly override the configuration.
	imagesDirectory   string
	listenIP          string
	listenPort        int
	fieldsSeparator   string
	imageField        int
	deviceField       int
	versionField      int
	logLevel          string
	grpcHealthAddress string
	shutdownTimeout   = config.DefaultShutdownTimeout

	// rootCmd represents the base command for running the update server.
	rootCmd = &cobra.Command{
		Use:   "swupdate-httpd",
		Short: "Serve update images to SWUpdate clients.",
		Long: `Starts an HTTP server that tells SWUpdate clients whether an update is available.

Clients query / with image, device and current_version. The server lists the
images directory, decodes every filename into image, device and version fields
and answers:
  302 with Location /images/<file>  when exactly one image matches and its version differs,
  404                               when nothing matches or the version is current,
  400                               when a query parameter is missing,
  500                               when more than one image matches or the directory is unreadable.

Images are downloaded from /images. Settings come from defaults, an optional
YAML file, SWUPDATE_* environment variables (also read from .env) and flags,
in increasing order of precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &server.Options{
				ConfigPath: configPath,
				EnvFile:    envFile,
				Overrides:  overridesFromFlags(cmd),
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the swupdate-httpd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// overridesFromFlags collects the flags the user actually set.
func overridesFromFlags(cmd *cobra.Command) *config.Overrides {
	flags := cmd.Flags()
	overrides := new(config.Overrides)

	if flags.Changed("images_directory") {
		overrides.ImagesDirectory = &imagesDirectory
	}

	if flags.Changed("listen_ip") {
		overrides.ListenIP = &listenIP
	}

	if flags.Changed("listen_port") {
		overrides.ListenPort = &listenPort
	}

	if flags.Changed("filename_fields_separator") {
		overrides.FieldsSeparator = &fieldsSeparator
	}

	if flags.Changed("filename_field_image_identifier") {
		overrides.ImageField = &imageField
	}

	if flags.Changed("filename_field_device_type") {
		overrides.DeviceField = &deviceField
	}

	if flags.Changed("filename_field_version") {
		overrides.VersionField = &versionField
	}

	if flags.Changed("log-level") {
		overrides.LogLevel = &logLevel
	}

	if flags.Changed("grpc-health-address") {
		overrides.GRPCHealthAddress = &grpcHealthAddress
	}

	if flags.Changed("shutdown-timeout") {
		overrides.ShutdownTimeout = &shutdownTimeout
	}

	return overrides
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	defaults := config.Default()

	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to an optional configuration file")
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFilename, "path to an optional dotenv file")
	flags.StringVar(&imagesDirectory, "images_directory", "", "directory where the update images are placed")
	flags.StringVar(&listenIP, "listen_ip", defaults.ListenIP, "interface to listen on")
	flags.IntVar(&listenPort, "listen_port", defaults.ListenPort, "port to listen on")
	flags.StringVar(&fieldsSeparator, "filename_fields_separator", defaults.FieldsSeparator,
		"separator of the fields in image filenames")
	flags.IntVar(&imageField, "filename_field_image_identifier", defaults.ImageField,
		"index of the filename field holding the image identifier")
	flags.IntVar(&deviceField, "filename_field_device_type", defaults.DeviceField,
		"index of the filename field holding the device type")
	flags.IntVar(&versionField, "filename_field_version", defaults.VersionField,
		"index of the filename field holding the version")
	flags.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&grpcHealthAddress, "grpc-health-address", "",
		"address of the gRPC health service, disabled when empty")
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout,
		"grace period for in-flight requests on shutdown")

	rootCmd.AddCommand(checkCmd)
}
