package artifact

import "fmt"

// RunResultsSchema enumerates the supported run_results.json schema
// versions. New versions are added here explicitly, never inferred.
type RunResultsSchema int

const (
	RunResultsUnknown RunResultsSchema = iota
	RunResultsV4
	RunResultsV5
	RunResultsV6
)

// String returns the schema URL suffix for the version.
func (v RunResultsSchema) String() string {
	switch v {
	case RunResultsV4:
		return "run-results/v4"
	case RunResultsV5:
		return "run-results/v5"
	case RunResultsV6:
		return "run-results/v6"
	default:
		return "run-results/unknown"
	}
}

// ManifestSchema enumerates the supported manifest.json schema versions.
type ManifestSchema int

const (
	ManifestUnknown ManifestSchema = iota
	ManifestV10
	ManifestV11
	ManifestV12
)

// String returns the schema URL suffix for the version.
func (v ManifestSchema) String() string {
	switch v {
	case ManifestV10:
		return "manifest/v10"
	case ManifestV11:
		return "manifest/v11"
	case ManifestV12:
		return "manifest/v12"
	default:
		return "manifest/unknown"
	}
}

// runResultsSchemas maps the dbt_schema_version URL to its variant.
var runResultsSchemas = map[string]RunResultsSchema{
	"https://schemas.getdbt.com/dbt/run-results/v4.json": RunResultsV4,
	"https://schemas.getdbt.com/dbt/run-results/v5.json": RunResultsV5,
	"https://schemas.getdbt.com/dbt/run-results/v6.json": RunResultsV6,
}

// manifestSchemas maps the dbt_schema_version URL to its variant.
var manifestSchemas = map[string]ManifestSchema{
	"https://schemas.getdbt.com/dbt/manifest/v10.json": ManifestV10,
	"https://schemas.getdbt.com/dbt/manifest/v11.json": ManifestV11,
	"https://schemas.getdbt.com/dbt/manifest/v12.json": ManifestV12,
}

func parseRunResultsSchema(url string) (RunResultsSchema, error) {
	if v, ok := runResultsSchemas[url]; ok {
		return v, nil
	}
	return RunResultsUnknown, fmt.Errorf("unsupported run_results schema version: %q", url)
}

func parseManifestSchema(url string) (ManifestSchema, error) {
	if v, ok := manifestSchemas[url]; ok {
		return v, nil
	}
	return ManifestUnknown, fmt.Errorf("unsupported manifest schema version: %q", url)
}
