// Package openlineage constructs OpenLineage v2 run events from resolved
// dbt lineage and test results, and assembles them into one ordered
// batch per invocation.
package openlineage

import "time"

// Version is the plugin version reported in the producer field.
const Version = "0.1.0"

// Producer identifies this integration in every emitted event.
const Producer = "https://github.com/correlator-io/dbt-correlator/" + Version

// SchemaURL is the OpenLineage RunEvent schema every event declares.
const SchemaURL = "https://openlineage.io/spec/2-0-2/OpenLineage.json#/$defs/RunEvent"

// EventType is the OpenLineage run state transition carried by an event.
type EventType string

const (
	EventStart    EventType = "START"
	EventComplete EventType = "COMPLETE"
	EventFail     EventType = "FAIL"
)

// Run identifies the invocation; one runId is shared by every event of
// an invocation.
type Run struct {
	RunID string `json:"runId"`
}

// Job identifies the wrapping job; one job identity per invocation.
type Job struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Assertion is a single data-quality check outcome.
type Assertion struct {
	Assertion string `json:"assertion"`
	Success   bool   `json:"success"`
	Column    string `json:"column,omitempty"`
}

// DataQualityAssertionsFacet carries the assertion outcomes for one
// input dataset.
type DataQualityAssertionsFacet struct {
	Assertions []Assertion `json:"assertions"`
}

// OutputStatisticsFacet carries runtime metrics for an output dataset.
type OutputStatisticsFacet struct {
	RowCount int64 `json:"rowCount"`
}

// InputFacets holds the facets attachable to an input dataset.
type InputFacets struct {
	DataQualityAssertions *DataQualityAssertionsFacet `json:"dataQualityAssertions,omitempty"`
}

// OutputFacets holds the facets attachable to an output dataset.
type OutputFacets struct {
	OutputStatistics *OutputStatisticsFacet `json:"outputStatistics,omitempty"`
}

// InputDataset is a dataset read by the job.
type InputDataset struct {
	Namespace   string       `json:"namespace"`
	Name        string       `json:"name"`
	InputFacets *InputFacets `json:"inputFacets,omitempty"`
}

// OutputDataset is a dataset written by the job.
type OutputDataset struct {
	Namespace    string        `json:"namespace"`
	Name         string        `json:"name"`
	OutputFacets *OutputFacets `json:"outputFacets,omitempty"`
}

// RunEvent is an OpenLineage v2 run event. Immutable after construction.
type RunEvent struct {
	EventType EventType       `json:"eventType"`
	EventTime string          `json:"eventTime"`
	Run       Run             `json:"run"`
	Job       Job             `json:"job"`
	Producer  string          `json:"producer"`
	SchemaURL string          `json:"schemaURL"`
	Inputs    []InputDataset  `json:"inputs"`
	Outputs   []OutputDataset `json:"outputs"`
}

// FormatEventTime renders an event timestamp as ISO-8601 UTC.
func FormatEventTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
