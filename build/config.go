package build

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reoring/wqschema/artifact"
	"github.com/reoring/wqschema/validator"
)

// DefaultSkipPrefix marks shared documents that are referenced by others but
// not compiled themselves.
const DefaultSkipPrefix = "definitions."

// Config controls a build. Unset fields take the values of DefaultConfig.
type Config struct {
	// Concurrency bounds how many documents compile at once. Zero means no
	// limit.
	Concurrency int `yaml:"concurrency,omitempty"`
	// CoerceTypes converts numeric-looking strings and similar scalars to
	// their declared types before validation.
	CoerceTypes *bool `yaml:"coerce_types,omitempty"`
	// UseDefaults fills missing fields from schema defaults.
	UseDefaults *bool `yaml:"use_defaults,omitempty"`
	// Language selects validation messages ("en", "ja").
	Language string `yaml:"language,omitempty"`
	// QuoteIdentifiers quotes generated DDL column names.
	QuoteIdentifiers bool `yaml:"quote_identifiers,omitempty"`
	// SkipPrefix names shared documents that are only referenced.
	SkipPrefix string `yaml:"skip_prefix,omitempty"`
}

// DefaultConfig coerces, applies defaults and reports English messages.
func DefaultConfig() Config {
	yes := true
	return Config{
		CoerceTypes: &yes,
		UseDefaults: &yes,
		Language:    "en",
		SkipPrefix:  DefaultSkipPrefix,
	}
}

// LoadConfig decodes a YAML build config. Unknown keys are rejected and unset
// keys keep their defaults.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("build: config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config values.
func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("build: config: concurrency must not be negative (got %d)", c.Concurrency)
	}
	switch c.Language {
	case "", "en", "ja":
	default:
		return fmt.Errorf("build: config: unsupported language %q", c.Language)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CoerceTypes == nil {
		c.CoerceTypes = d.CoerceTypes
	}
	if c.UseDefaults == nil {
		c.UseDefaults = d.UseDefaults
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.SkipPrefix == "" {
		c.SkipPrefix = d.SkipPrefix
	}
	return c
}

func (c Config) validatorOptions(log *zap.Logger) validator.Options {
	return validator.Options{
		NoCoerce:   !*c.CoerceTypes,
		NoDefaults: !*c.UseDefaults,
		Language:   c.Language,
		Logger:     log,
	}
}

func (c Config) ddlOptions() artifact.DDLOptions {
	return artifact.DDLOptions{QuoteIdentifiers: c.QuoteIdentifiers}
}
