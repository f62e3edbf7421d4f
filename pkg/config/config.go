// Package config provides layered configuration for depinfer: defaults, a
// YAML file, DEPINFER_ environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/depinfer/pkg/discovery"
	"github.com/Sumatoshi-tech/depinfer/pkg/levenshtein"
	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers   = errors.New("pipeline workers must not be negative")
	ErrInvalidFileSize  = errors.New("invalid pipeline max file size")
	ErrUnknownLanguage  = errors.New("unknown source language")
	ErrNoManifestFiles  = errors.New("at least one manifest file name is required")
	ErrNoSourceDirs     = errors.New("at least one main source directory is required")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrSchemaViolation  = errors.New("configuration does not match schema")
)

var (
	knownLanguages = []string{string(sourcefact.LangJava), string(sourcefact.LangKotlin), string(sourcefact.LangProto)}
	knownLevels    = []string{"debug", "info", "warn", "error"}
	knownFormats   = []string{"text", "json"}
)

// suggestionDistance bounds how far a typo may be from a known value.
const suggestionDistance = 2

// Config is the top-level configuration struct for depinfer.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Layout    LayoutConfig    `mapstructure:"layout"`
	Packages  PackagesConfig  `mapstructure:"packages"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-"`
}

// LayoutConfig describes where modules and their sources live.
type LayoutConfig struct {
	ManifestFiles []string `mapstructure:"manifest_files"`
	MainDirs      []string `mapstructure:"main_dirs"`
	TestDirs      []string `mapstructure:"test_dirs"`
	SkipDirs      []string `mapstructure:"skip_dirs"`
	Languages     []string `mapstructure:"languages"`
}

// PackagesConfig lists the namespaces excluded from import and export sets.
type PackagesConfig struct {
	Platform []string `mapstructure:"platform"`
	Implicit []string `mapstructure:"implicit"`
}

// PipelineConfig holds pipeline resource knobs.
type PipelineConfig struct {
	// Workers bounds concurrent extraction; zero means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// MaxFileSize is a humanized size ("1MiB"); larger sources are skipped.
	MaxFileSize string `mapstructure:"max_file_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Pipeline.Workers)
	}

	_, sizeErr := humanize.ParseBytes(c.Pipeline.MaxFileSize)
	if sizeErr != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidFileSize, c.Pipeline.MaxFileSize, sizeErr)
	}

	for _, lang := range c.Layout.Languages {
		if !slices.Contains(knownLanguages, lang) {
			return fmt.Errorf("%w: %q%s", ErrUnknownLanguage, lang, Suggest(lang, knownLanguages))
		}
	}

	if len(c.Layout.ManifestFiles) == 0 {
		return ErrNoManifestFiles
	}

	if len(c.Layout.MainDirs) == 0 {
		return ErrNoSourceDirs
	}

	if !slices.Contains(knownLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q%s", ErrInvalidLogLevel, c.Logging.Level, Suggest(c.Logging.Level, knownLevels))
	}

	if !slices.Contains(knownFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q%s", ErrInvalidLogFormat, c.Logging.Format, Suggest(c.Logging.Format, knownFormats))
	}

	return nil
}

// DiscoveryLayout returns the module layout for discovery.
func (c *Config) DiscoveryLayout() discovery.Layout {
	languages := make([]sourcefact.Language, 0, len(c.Layout.Languages))
	for _, lang := range c.Layout.Languages {
		languages = append(languages, sourcefact.Language(lang))
	}

	return discovery.Layout{
		ManifestFiles: c.Layout.ManifestFiles,
		MainDirs:      c.Layout.MainDirs,
		TestDirs:      c.Layout.TestDirs,
		SkipDirs:      c.Layout.SkipDirs,
		Languages:     languages,
	}
}

// NamespaceFilter returns the filter for excluded namespaces.
func (c *Config) NamespaceFilter() *sourcefact.Filter {
	return sourcefact.NewFilter(c.Packages.Platform, c.Packages.Implicit)
}

// MaxFileSizeBytes returns the parsed size limit; zero means unlimited.
func (c *Config) MaxFileSizeBytes() int64 {
	size, err := humanize.ParseBytes(c.Pipeline.MaxFileSize)
	if err != nil {
		return 0
	}

	limit, err := safecast.Conv[int64](size)
	if err != nil {
		return 0
	}

	return limit
}

// Suggest returns a " (did you mean ...?)" hint naming the known value
// closest to value, or "" when none is close enough.
func Suggest(value string, known []string) string {
	closest := levenshtein.Closest(value, known, suggestionDistance)
	if closest == "" {
		return ""
	}

	return fmt.Sprintf(" (did you mean %q?)", closest)
}
