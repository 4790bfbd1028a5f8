package config

import "time"

// Overrides holds values given explicitly on the command line.
// A nil field leaves the configured value untouched.
type Overrides struct {
	ImagesDirectory   *string
	ListenIP          *string
	ListenPort        *int
	FieldsSeparator   *string
	ImageField        *int
	DeviceField       *int
	VersionField      *int
	LogLevel          *string
	GRPCHealthAddress *string
	ShutdownTimeout   *time.Duration
}

// Apply copies every set override into cfg.
func (o *Overrides) Apply(cfg *Config) {
	if o == nil || cfg == nil {
		return
	}

	setIf(&cfg.ImagesDirectory, o.ImagesDirectory)
	setIf(&cfg.ListenIP, o.ListenIP)
	setIf(&cfg.ListenPort, o.ListenPort)
	setIf(&cfg.FieldsSeparator, o.FieldsSeparator)
	setIf(&cfg.ImageField, o.ImageField)
	setIf(&cfg.DeviceField, o.DeviceField)
	setIf(&cfg.VersionField, o.VersionField)
	setIf(&cfg.LogLevel, o.LogLevel)
	setIf(&cfg.GRPCHealthAddress, o.GRPCHealthAddress)
	setIf(&cfg.ShutdownTimeout, o.ShutdownTimeout)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Build assembles the final configuration: defaults, the YAML file at path,
// the environment (after loading envFile) and finally the overrides.
// The result is validated.
func Build(path, envFile string, overrides *Overrides) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err = ApplyEnv(cfg, envFile); err != nil {
		return nil, err
	}

	overrides.Apply(cfg)

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
