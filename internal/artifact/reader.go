package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/relvacode/iso8601"
)

// rawRunResults mirrors the run_results.json layout. Unknown fields are
// ignored for forward compatibility.
type rawRunResults struct {
	Metadata    *rawRunMetadata `json:"metadata"`
	Results     []rawResult     `json:"results"`
	ElapsedTime float64         `json:"elapsed_time"`
}

type rawRunMetadata struct {
	SchemaVersion string  `json:"dbt_schema_version"`
	DBTVersion    string  `json:"dbt_version"`
	GeneratedAt   string  `json:"generated_at"`
	InvocationID  string  `json:"invocation_id"`
	ElapsedTime   float64 `json:"elapsed_time"`
}

type rawResult struct {
	UniqueID      string  `json:"unique_id"`
	Status        string  `json:"status"`
	ExecutionTime float64 `json:"execution_time"`
	Failures      *int64  `json:"failures"`
	Message       string  `json:"message"`
	// compiled_sql was renamed to compiled_code in run-results v5;
	// the schema version decides which one is read.
	CompiledSQL     string              `json:"compiled_sql"`
	CompiledCode    string              `json:"compiled_code"`
	ThreadID        string              `json:"thread_id"`
	AdapterResponse *rawAdapterResponse `json:"adapter_response"`
}

type rawAdapterResponse struct {
	RowsAffected *int64 `json:"rows_affected"`
}

// ParseRunResults loads and validates a run_results.json document.
// It fails with *ParseError on a missing file, malformed JSON, a
// missing required field, or an unsupported schema version.
func ParseRunResults(path string) (*RunResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var raw rawRunResults
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if raw.Metadata == nil {
		return nil, &ParseError{Path: path, Field: "metadata"}
	}
	if raw.Metadata.InvocationID == "" {
		return nil, &ParseError{Path: path, Field: "metadata.invocation_id"}
	}
	if raw.Metadata.GeneratedAt == "" {
		return nil, &ParseError{Path: path, Field: "metadata.generated_at"}
	}

	schema, err := parseRunResultsSchema(raw.Metadata.SchemaVersion)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	generatedAt, err := iso8601.ParseString(raw.Metadata.GeneratedAt)
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid generated_at: %w", err)}
	}

	elapsed := raw.ElapsedTime
	if elapsed == 0 {
		elapsed = raw.Metadata.ElapsedTime
	}

	doc := &RunResults{
		SchemaVersion: schema,
		Metadata: RunResultsMetadata{
			DBTVersion:   raw.Metadata.DBTVersion,
			GeneratedAt:  generatedAt,
			InvocationID: raw.Metadata.InvocationID,
			ElapsedTime:  elapsed,
		},
		Results: make([]Result, 0, len(raw.Results)),
	}

	for _, r := range raw.Results {
		doc.Results = append(doc.Results, decodeResult(r, schema))
	}

	return doc, nil
}

// decodeResult converts a raw result using the schema variant rules.
func decodeResult(r rawResult, schema RunResultsSchema) Result {
	result := Result{
		UniqueID:      r.UniqueID,
		Status:        Status(r.Status),
		ExecutionTime: r.ExecutionTime,
		Failures:      r.Failures,
		Message:       r.Message,
		ThreadID:      r.ThreadID,
	}

	// v4 artifacts carry compiled_sql; v5+ renamed it to compiled_code.
	if schema == RunResultsV4 {
		result.CompiledCode = r.CompiledSQL
	} else {
		result.CompiledCode = r.CompiledCode
	}

	if r.AdapterResponse != nil {
		result.RowsAffected = r.AdapterResponse.RowsAffected
	}

	return result
}

// rawManifest mirrors the manifest.json layout.
type rawManifest struct {
	Metadata *rawManifestMetadata `json:"metadata"`
	Nodes    map[string]rawNode   `json:"nodes"`
	Sources  map[string]rawNode   `json:"sources"`
}

type rawManifestMetadata struct {
	SchemaVersion string `json:"dbt_schema_version"`
	AdapterType   string `json:"adapter_type"`
	ProjectName   string `json:"project_name"`
}

type rawNode struct {
	UniqueID     string           `json:"unique_id"`
	ResourceType string           `json:"resource_type"`
	Database     string           `json:"database"`
	Schema       string           `json:"schema"`
	Alias        string           `json:"alias"`
	Identifier   string           `json:"identifier"`
	Name         string           `json:"name"`
	DependsOn    *rawDependsOn    `json:"depends_on"`
	ColumnName   string           `json:"column_name"`
	TestMetadata *rawTestMetadata `json:"test_metadata"`
}

type rawDependsOn struct {
	Nodes []string `json:"nodes"`
}

type rawTestMetadata struct {
	Name   string         `json:"name"`
	Kwargs map[string]any `json:"kwargs"`
}

// ParseManifest loads and validates a manifest.json document. Nodes and
// sources are merged into a single unique_id lookup so downstream
// resolution never needs to know which map an id came from.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if raw.Metadata == nil {
		return nil, &ParseError{Path: path, Field: "metadata"}
	}
	if raw.Nodes == nil {
		return nil, &ParseError{Path: path, Field: "nodes"}
	}

	schema, err := parseManifestSchema(raw.Metadata.SchemaVersion)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m := &Manifest{
		SchemaVersion: schema,
		Metadata: ManifestMetadata{
			AdapterType: raw.Metadata.AdapterType,
			ProjectName: raw.Metadata.ProjectName,
		},
		Nodes: make(map[string]*Node, len(raw.Nodes)+len(raw.Sources)),
	}

	for id, n := range raw.Nodes {
		m.Nodes[id] = decodeNode(id, n)
	}
	for id, n := range raw.Sources {
		m.Nodes[id] = decodeNode(id, n)
	}

	return m, nil
}

func decodeNode(id string, n rawNode) *Node {
	node := &Node{
		UniqueID:     id,
		ResourceType: n.ResourceType,
		Database:     n.Database,
		Schema:       n.Schema,
		Alias:        n.Alias,
		Identifier:   n.Identifier,
		Name:         n.Name,
		ColumnName:   n.ColumnName,
	}
	if n.UniqueID != "" {
		node.UniqueID = n.UniqueID
	}
	if n.DependsOn != nil {
		node.DependsOn = append([]string(nil), n.DependsOn.Nodes...)
	}
	if n.TestMetadata != nil {
		node.TestName = n.TestMetadata.Name
		// column_name sometimes lives only in the test kwargs
		if node.ColumnName == "" {
			if col, ok := n.TestMetadata.Kwargs["column_name"].(string); ok {
				node.ColumnName = col
			}
		}
	}
	return node
}
