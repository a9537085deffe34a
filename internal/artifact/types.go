// Package artifact parses dbt build artifacts (run_results.json and
// manifest.json) into immutable documents for lineage resolution and
// event construction.
package artifact

import (
	"strings"
	"time"
)

// Status is a dbt node execution status from run_results.json.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
	StatusWarn    Status = "warn"
	StatusSkipped Status = "skipped"
	StatusSuccess Status = "success" // models report "success" instead of "pass"
)

// Passed reports whether the status counts as a passing assertion.
func (s Status) Passed() bool {
	switch Status(strings.ToLower(string(s))) {
	case StatusPass, StatusSuccess:
		return true
	default:
		return false
	}
}

// Result is a single node execution result from run_results.json.
// Immutable after parse.
type Result struct {
	UniqueID      string
	Status        Status
	ExecutionTime float64
	Failures      *int64
	Message       string
	CompiledCode  string
	ThreadID      string

	// RowsAffected comes from adapter_response and is nil when the
	// adapter did not report one.
	RowsAffected *int64
}

// RunResultsMetadata holds the metadata block of run_results.json.
type RunResultsMetadata struct {
	DBTVersion   string
	GeneratedAt  time.Time
	InvocationID string
	ElapsedTime  float64
}

// RunResults is a parsed run_results.json document.
type RunResults struct {
	SchemaVersion RunResultsSchema
	Metadata      RunResultsMetadata
	Results       []Result
}

// Node is a single manifest entry: a model, test, source, seed or
// snapshot. Sources are normalized into the same shape as nodes.
type Node struct {
	UniqueID     string
	ResourceType string
	Database     string
	Schema       string
	Alias        string
	Identifier   string
	Name         string

	// DependsOn lists upstream unique_ids in declared order.
	DependsOn []string

	// Test-only fields.
	ColumnName string
	TestName   string
}

// IsTest reports whether the node is a test node.
func (n *Node) IsTest() bool {
	return n.ResourceType == "test"
}

// RelationName returns the physical relation name for the node: the
// first non-empty of alias, identifier, name.
func (n *Node) RelationName() string {
	switch {
	case n.Alias != "":
		return n.Alias
	case n.Identifier != "":
		return n.Identifier
	default:
		return n.Name
	}
}

// ManifestMetadata holds the metadata block of manifest.json.
type ManifestMetadata struct {
	AdapterType string
	ProjectName string
}

// Manifest is a parsed manifest.json document. Nodes and sources are
// merged into a single unique_id lookup.
type Manifest struct {
	SchemaVersion ManifestSchema
	Metadata      ManifestMetadata
	Nodes         map[string]*Node
}
