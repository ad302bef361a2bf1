// Package config loads granulezip settings.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file named by --config or the GRANULEZIP_CONFIG environment variable,
// and command line flags. There is no automatic file discovery.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/granulezip/internal/blockcodec"
	"github.com/harshithgowdakt/granulezip/internal/compression"
)

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "GRANULEZIP_CONFIG"

// Progress modes.
const (
	ProgressAuto   = "auto"
	ProgressAlways = "always"
	ProgressNever  = "never"
)

// Config holds every tunable of a granulezip run.
type Config struct {
	// Codec names the block codec (see compression.Names).
	Codec string `yaml:"codec"`

	// Level is the codec level; 0 selects the codec default.
	Level int `yaml:"level"`

	// BlockSize is the raw size of each compressed block. Only used when
	// compressing; decompression takes block boundaries from the input.
	BlockSize ByteSize `yaml:"block_size"`

	// Workers is the degree of parallelism; 0 selects NumCPU-1.
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`

	// Progress is auto (only on a terminal), always or never.
	Progress string `yaml:"progress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Codec:     compression.DefaultCodec,
		BlockSize: blockcodec.DefaultBlockSize,
		LogLevel:  "warn",
		Progress:  ProgressAuto,
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the file at path, or at $GRANULEZIP_CONFIG when path is
// empty. With neither set it returns Default.
func Resolve(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ValidationError reports one invalid setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks every field and returns all problems found.
func (c Config) Validate() error {
	var errs []error
	if err := compression.Check(c.Codec, c.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "codec", Reason: err.Error()})
	}
	if c.BlockSize == 0 {
		errs = append(errs, &ValidationError{Field: "block_size", Reason: "must be positive"})
	} else if uint64(c.BlockSize) > compression.MaxPayloadSize {
		errs = append(errs, &ValidationError{Field: "block_size",
			Reason: fmt.Sprintf("%s exceeds the %s frame limit", c.BlockSize, ByteSize(compression.MaxPayloadSize))})
	}
	if c.Workers < 0 {
		errs = append(errs, &ValidationError{Field: "workers", Reason: fmt.Sprintf("%d is negative", c.Workers)})
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, &ValidationError{Field: "log_level", Reason: err.Error()})
	}
	switch c.Progress {
	case ProgressAuto, ProgressAlways, ProgressNever:
	default:
		errs = append(errs, &ValidationError{Field: "progress",
			Reason: fmt.Sprintf("%q is not one of auto, always, never", c.Progress)})
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// NewCodec builds the configured codec.
func (c Config) NewCodec() (compression.Codec, error) {
	return compression.New(c.Codec, c.Level)
}

// EngineConfig converts c into a block codec engine configuration.
func (c Config) EngineConfig(codec compression.Codec, logger *slog.Logger) blockcodec.Config {
	return blockcodec.Config{
		Codec:     codec,
		BlockSize: int64(c.BlockSize),
		Workers:   c.Workers,
		Logger:    logger,
	}
}
