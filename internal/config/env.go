package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SWUPDATE_"

// DefaultEnvFilename is the dotenv file loaded when present.
const DefaultEnvFilename = ".env"

// ApplyEnv loads envFile into the process environment when it exists and then
// overrides cfg with any SWUPDATE_* variables. Variables already present in the
// environment win over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return applyEnv(cfg, os.LookupEnv)
}

// applyEnv overrides cfg from the variables visible through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	stringVars := map[string]*string{
		"IMAGES_DIRECTORY":          &cfg.ImagesDirectory,
		"LISTEN_IP":                 &cfg.ListenIP,
		"FILENAME_FIELDS_SEPARATOR": &cfg.FieldsSeparator,
		"LOG_LEVEL":                 &cfg.LogLevel,
		"GRPC_HEALTH_ADDRESS":       &cfg.GRPCHealthAddress,
	}

	for name, target := range stringVars {
		if value, ok := lookup(EnvPrefix + name); ok {
			*target = value
		}
	}

	intVars := map[string]*int{
		"LISTEN_PORT":                     &cfg.ListenPort,
		"FILENAME_FIELD_IMAGE_IDENTIFIER": &cfg.ImageField,
		"FILENAME_FIELD_DEVICE_TYPE":      &cfg.DeviceField,
		"FILENAME_FIELD_VERSION":          &cfg.VersionField,
	}

	for name, target := range intVars {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}

		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}

		*target = parsed
	}

	if value, ok := lookup(EnvPrefix + "SHUTDOWN_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}

		cfg.ShutdownTimeout = timeout
	}

	return nil
}
