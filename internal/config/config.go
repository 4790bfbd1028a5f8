package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
	"github.com/oshokin/swupdate-httpd/internal/logger"
)

// Config holds the settings of the update server.
type Config struct {
	// ImagesDirectory is the directory holding the update images.
	ImagesDirectory string `yaml:"images_directory"`
	// ListenIP is the interface to listen on.
	ListenIP string `yaml:"listen_ip"`
	// ListenPort is the TCP port to listen on.
	ListenPort int `yaml:"listen_port"`
	// FieldsSeparator separates the fields of an image filename.
	FieldsSeparator string `yaml:"filename_fields_separator"`
	// ImageField is the filename field holding the image identifier.
	ImageField int `yaml:"filename_field_image_identifier"`
	// DeviceField is the filename field holding the device type.
	DeviceField int `yaml:"filename_field_device_type"`
	// VersionField is the filename field holding the version.
	VersionField int `yaml:"filename_field_version"`
	// LogLevel is the minimum level of written log messages.
	LogLevel string `yaml:"log_level"`
	// GRPCHealthAddress enables the gRPC health service when set.
	GRPCHealthAddress string `yaml:"grpc_health_address,omitempty"`
	// ShutdownTimeout bounds how long in-flight requests may take after a stop signal.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	// DefaultListenIP listens on all interfaces.
	DefaultListenIP = "0.0.0.0"

	// DefaultListenPort is the default HTTP port.
	DefaultListenPort = 8080

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultShutdownTimeout is the default grace period for in-flight requests.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultFilePermissions is the file permission for saved config files.
	DefaultFilePermissions = 0o600

	// maxPort is the highest valid TCP port.
	maxPort = 65535
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errImagesDirectoryRequired is returned when the images directory is missing.
	errImagesDirectoryRequired = errors.New("images directory must be provided")
	// errInvalidPort is returned for ports outside the TCP range.
	errInvalidPort = errors.New("listen port must be between 0 and 65535")
	// errInvalidLogLevel is returned for unknown level names.
	errInvalidLogLevel = errors.New("unknown log level")
)

// Default returns a configuration with every optional setting at its default value.
func Default() *Config {
	layout := update.DefaultLayout()

	return &Config{
		ListenIP:        DefaultListenIP,
		ListenPort:      DefaultListenPort,
		FieldsSeparator: layout.Separator,
		ImageField:      layout.ImageField,
		DeviceField:     layout.DeviceField,
		VersionField:    layout.VersionField,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults. The result is not validated yet,
// because the environment and flags may still override it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the configuration and fills in defaults for unset optional values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ImagesDirectory == "" {
		return errImagesDirectoryRequired
	}

	if cfg.ListenIP == "" {
		cfg.ListenIP = DefaultListenIP
	}

	if cfg.ListenPort < 0 || cfg.ListenPort > maxPort {
		return fmt.Errorf("%w: %d", errInvalidPort, cfg.ListenPort)
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress()); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if err := cfg.Layout().Validate(); err != nil {
		return err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.LogLevel)
	}

	if cfg.GRPCHealthAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.GRPCHealthAddress); err != nil {
			return fmt.Errorf("invalid gRPC health address: %w", err)
		}
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	return nil
}

// ListenAddress returns the host:port the HTTP server binds to.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.ListenIP, strconv.Itoa(c.ListenPort))
}

// Layout returns the filename field layout described by the configuration.
func (c *Config) Layout() update.Layout {
	return update.Layout{
		Separator:    c.FieldsSeparator,
		ImageField:   c.ImageField,
		DeviceField:  c.DeviceField,
		VersionField: c.VersionField,
	}
}
