package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file consulted when no other path is given.
const DefaultEnvFile = ".env"

// ErrInvalidSettings is returned when an environment value cannot be
// coerced to the type of the field it binds to.
var ErrInvalidSettings = errors.New("invalid settings")

type loadOptions struct {
	envFile     string
	environment map[string]string
}

// Option customizes a single Load.
type Option func(*loadOptions)

// WithEnvFile seeds from the dotenv file at path. An empty path disables seeding.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithEnvironment binds against vars instead of the process environment.
// The dotenv file is merged into a copy of vars; existing keys win.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = make(map[string]string, len(vars))
		for k, v := range vars {
			o.environment[k] = v
		}
	}
}

// Load seeds the environment from the dotenv file and binds every settings
// group in one pass. It never touches the network.
func Load(opts ...Option) (*Settings, error) {
	o := loadOptions{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	if err := seed(&o); err != nil {
		return nil, err
	}

	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: o.environment}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return &s, nil
}

// seed applies the dotenv file without overriding values already set.
func seed(o *loadOptions) error {
	if o.envFile == "" {
		return nil
	}
	if o.environment == nil {
		err := godotenv.Load(o.envFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", o.envFile, err)
		}
		return nil
	}

	vars, err := godotenv.Read(o.envFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", o.envFile, err)
	}
	for k, v := range vars {
		if _, ok := o.environment[k]; !ok {
			o.environment[k] = v
		}
	}
	return nil
}
