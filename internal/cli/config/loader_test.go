package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlagSet mirrors the persistent flags the root command registers.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("correlator-endpoint", "", "")
	flags.String("correlator-api-key", "", "")
	flags.String("openlineage-namespace", "dbt", "")
	flags.String("job-name", "", "")
	flags.String("dataset-namespace", "", "")
	flags.String("project-dir", ".", "")
	flags.String("profiles-dir", "~/.dbt", "")
	flags.Bool("skip-dbt-run", false, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Set("correlator-endpoint", "http://localhost:8080/events"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "dbt", cfg.OpenLineage.Namespace)
	assert.Equal(t, ".", cfg.DBT.ProjectDir)
	assert.Equal(t, "~/.dbt", cfg.DBT.ProfilesDir)
	assert.False(t, cfg.DBT.SkipRun)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
correlator:
  endpoint: http://file.example.com/events
  api_key: file-key
openlineage:
  namespace: analytics
dbt:
  project_dir: /srv/jaffle_shop
`)

	cfg, err := Load(path, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "http://file.example.com/events", cfg.Correlator.Endpoint)
	assert.Equal(t, "file-key", cfg.Correlator.APIKey)
	assert.Equal(t, "analytics", cfg.OpenLineage.Namespace)
	assert.Equal(t, "/srv/jaffle_shop", cfg.DBT.ProjectDir)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"), newFlagSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
correlator:
  endpoint: http://file.example.com/events
`)
	t.Setenv("CORRELATOR_ENDPOINT", "http://env.example.com/events")
	t.Setenv("CORRELATOR_API_KEY", "env-key")

	cfg, err := Load(path, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com/events", cfg.Correlator.Endpoint)
	assert.Equal(t, "env-key", cfg.Correlator.APIKey)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CORRELATOR_ENDPOINT", "http://env.example.com/events")
	t.Setenv("OPENLINEAGE_NAMESPACE", "from-env")

	flags := newFlagSet()
	require.NoError(t, flags.Set("correlator-endpoint", "http://flag.example.com/events"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// the changed flag wins; the untouched namespace flag does not mask env
	assert.Equal(t, "http://flag.example.com/events", cfg.Correlator.Endpoint)
	assert.Equal(t, "from-env", cfg.OpenLineage.Namespace)
}

func TestLoad_UnchangedFlagDefaultsDoNotOverride(t *testing.T) {
	path := writeConfigFile(t, `
correlator:
  endpoint: http://file.example.com/events
dbt:
  project_dir: /srv/jaffle_shop
`)

	cfg, err := Load(path, newFlagSet())
	require.NoError(t, err)

	// project-dir flag defaults to "." but was never set
	assert.Equal(t, "/srv/jaffle_shop", cfg.DBT.ProjectDir)
}

func TestLoad_DatasetNamespace(t *testing.T) {
	t.Setenv("DBT_CORRELATOR_NAMESPACE", "snowflake://prod")

	flags := newFlagSet()
	require.NoError(t, flags.Set("correlator-endpoint", "http://localhost:8080/events"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "snowflake://prod", cfg.OpenLineage.DatasetNamespace)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		wantErr string
	}{
		{
			name:    "missing endpoint",
			flags:   nil,
			wantErr: "correlator endpoint is required",
		},
		{
			name:    "relative endpoint",
			flags:   map[string]string{"correlator-endpoint": "localhost:8080"},
			wantErr: "must be an absolute URL",
		},
		{
			name:    "wrong scheme",
			flags:   map[string]string{"correlator-endpoint": "ftp://example.com/events"},
			wantErr: "scheme must be http or https",
		},
		{
			name: "empty namespace",
			flags: map[string]string{
				"correlator-endpoint":   "http://localhost:8080/events",
				"openlineage-namespace": "",
			},
			wantErr: "namespace must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFlagSet()
			for name, value := range tt.flags {
				require.NoError(t, flags.Set(name, value))
			}

			_, err := Load("", flags)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
