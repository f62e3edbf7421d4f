package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

// configName is the config file name without extension.
const configName = ".depinfer"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for depinfer settings.
const envPrefix = "DEPINFER"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in searchDirs, then CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string, searchDirs ...string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)

		for _, dir := range searchDirs {
			viperCfg.AddConfigPath(dir)
		}

		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	schemaErr := validateSchema(viperCfg.AllSettings())
	if schemaErr != nil {
		return nil, fmt.Errorf("validate config: %w", schemaErr)
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	cfg.File = viperCfg.ConfigFileUsed()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("layout.manifest_files", DefaultManifestFiles)
	viperCfg.SetDefault("layout.main_dirs", DefaultMainDirs)
	viperCfg.SetDefault("layout.test_dirs", DefaultTestDirs)
	viperCfg.SetDefault("layout.skip_dirs", DefaultSkipDirs)
	viperCfg.SetDefault("layout.languages", DefaultLanguages)

	viperCfg.SetDefault("packages.platform", sourcefact.DefaultPlatformNamespaces)
	viperCfg.SetDefault("packages.implicit", sourcefact.DefaultImplicitNamespaces)

	viperCfg.SetDefault("pipeline.workers", DefaultPipelineWorkers)
	viperCfg.SetDefault("pipeline.max_file_size", DefaultPipelineMaxFileSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultOTLPHeaders)
	viperCfg.SetDefault("telemetry.metrics_file", DefaultMetricsFile)
}
