package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, checked in order.
const (
	ConfigFileName    = ".dbt-correlator.yml"
	ConfigFileNameAlt = ".dbt-correlator.yaml"
)

// defaults are the lowest-precedence configuration values.
var defaults = map[string]interface{}{
	"openlineage.namespace": "dbt",
	"dbt.project_dir":       ".",
	"dbt.profiles_dir":      "~/.dbt",
}

// envKeys maps environment variables to config keys. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"CORRELATOR_ENDPOINT":      "correlator.endpoint",
	"CORRELATOR_API_KEY":       "correlator.api_key",
	"OPENLINEAGE_NAMESPACE":    "openlineage.namespace",
	"DBT_CORRELATOR_NAMESPACE": "openlineage.dataset_namespace",
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"correlator-endpoint":   "correlator.endpoint",
	"correlator-api-key":    "correlator.api_key",
	"openlineage-namespace": "openlineage.namespace",
	"job-name":              "openlineage.job_name",
	"dataset-namespace":     "openlineage.dataset_namespace",
	"project-dir":           "dbt.project_dir",
	"profiles-dir":          "dbt.profiles_dir",
	"skip-dbt-run":          "dbt.skip_run",
	"verbose":               "verbose",
}

var configFileUsed string

// GetConfigFileUsed returns the config file loaded by the last Load
// call, or empty when none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > .dbt-correlator.yml > .dbt-correlator.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves configuration with precedence (highest to lowest):
// flags > environment variables > config file > defaults.
// An explicitly named config file must exist; the default file names are
// optional.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		configFileUsed = path
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}

	if err := k.Load(env.Provider("", ".", func(name string) string {
		return envKeys[name] // unmapped variables map to "" and are skipped
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
