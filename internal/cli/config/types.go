// Package config loads dbt-correlator configuration from file,
// environment variables and CLI flags.
package config

import "time"

// CorrelatorConfig holds backend delivery settings.
type CorrelatorConfig struct {
	// Endpoint is the OpenLineage events URL; works with Correlator or
	// any OpenLineage-compatible backend.
	Endpoint string `koanf:"endpoint"`
	// APIKey is sent as X-API-Key when set.
	APIKey string `koanf:"api_key"`
	// Timeout bounds the delivery request.
	Timeout time.Duration `koanf:"timeout"`
}

// OpenLineageConfig holds event identity settings.
type OpenLineageConfig struct {
	// Namespace is the job namespace for emitted events.
	Namespace string `koanf:"namespace"`
	// JobName overrides the default "{project_name}.{command}" job name.
	JobName string `koanf:"job_name"`
	// DatasetNamespace overrides the derived "{adapter}://{database}"
	// dataset namespace.
	DatasetNamespace string `koanf:"dataset_namespace"`
}

// DBTConfig holds settings for the wrapped dbt invocation.
type DBTConfig struct {
	ProjectDir  string `koanf:"project_dir"`
	ProfilesDir string `koanf:"profiles_dir"`
	// SkipRun emits events from existing artifacts without running dbt.
	SkipRun bool `koanf:"skip_run"`
}

// Config is the resolved configuration for one invocation.
type Config struct {
	Correlator  CorrelatorConfig  `koanf:"correlator"`
	OpenLineage OpenLineageConfig `koanf:"openlineage"`
	DBT         DBTConfig         `koanf:"dbt"`
	Verbose     bool              `koanf:"verbose"`
}
