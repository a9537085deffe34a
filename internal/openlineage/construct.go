package openlineage

import (
	"fmt"
	"sort"
	"time"

	"github.com/correlator-io/dbt-correlator/internal/artifact"
	"github.com/correlator-io/dbt-correlator/internal/lineage"
)

// EventError reports an internal invariant violation during event
// construction, such as a model lineage resolving to zero datasets.
// It signals a logic defect rather than bad input data.
type EventError struct {
	ModelID string
	Reason  string
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event construction: %s: %s", e.ModelID, e.Reason)
}

// NewWrappingEvent builds a START/COMPLETE/FAIL lifecycle event with
// empty inputs and outputs, marking an invocation boundary.
func NewWrappingEvent(eventType EventType, runID string, job Job, at time.Time) RunEvent {
	return RunEvent{
		EventType: eventType,
		EventTime: FormatEventTime(at),
		Run:       Run{RunID: runID},
		Job:       job,
		Producer:  Producer,
		SchemaURL: SchemaURL,
		Inputs:    []InputDataset{},
		Outputs:   []OutputDataset{},
	}
}

// DatasetAssertions is one dataset's assertion group, in stable input
// order.
type DatasetAssertions struct {
	Dataset    lineage.DatasetInfo
	Assertions []Assertion
}

// GroupTestsByDataset partitions every resolvable executed test into
// exactly one dataset group. Groups keep first-seen dataset order and
// assertions keep run-results order. Unresolvable tests are dropped and
// reported as warnings, never as a failure.
func GroupTestsByDataset(rr *artifact.RunResults, g *lineage.Graph) ([]DatasetAssertions, []lineage.ResolutionWarning) {
	var (
		groups   []DatasetAssertions
		warnings []lineage.ResolutionWarning
	)
	index := make(map[lineage.DatasetInfo]int)

	for _, test := range lineage.ExecutedTests(rr) {
		targetID, warn := g.ResolveTestTarget(test.UniqueID)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		target, ok := g.Node(targetID)
		if !ok {
			warnings = append(warnings, lineage.ResolutionWarning{
				UniqueID: test.UniqueID,
				Reason:   fmt.Sprintf("target %s not found in manifest", targetID),
			})
			continue
		}

		testNode, _ := g.Node(test.UniqueID)
		dataset := lineage.BuildDatasetInfo(target, g.Metadata(), "")

		i, ok := index[dataset]
		if !ok {
			i = len(groups)
			index[dataset] = i
			groups = append(groups, DatasetAssertions{Dataset: dataset})
		}
		groups[i].Assertions = append(groups[i].Assertions, newAssertion(test, testNode))
	}

	return groups, warnings
}

// newAssertion maps one test result to its assertion entry. The
// assertion name is "test_name(column)" when a column is known.
func newAssertion(test artifact.Result, node *artifact.Node) Assertion {
	name := node.TestName
	if name == "" {
		name = node.Name
	}
	if name == "" {
		name = test.UniqueID
	}
	if node.ColumnName != "" {
		name = fmt.Sprintf("%s(%s)", name, node.ColumnName)
	}
	return Assertion{
		Assertion: name,
		Success:   test.Status.Passed(),
		Column:    node.ColumnName,
	}
}

// BuildTestEvents constructs one COMPLETE event per dataset group. The
// group's dataset is the event's single input, carrying the assertion
// list in a dataQualityAssertions facet.
func BuildTestEvents(groups []DatasetAssertions, runID string, job Job, at time.Time) []RunEvent {
	events := make([]RunEvent, 0, len(groups))
	for _, group := range groups {
		events = append(events, RunEvent{
			EventType: EventComplete,
			EventTime: FormatEventTime(at),
			Run:       Run{RunID: runID},
			Job:       job,
			Producer:  Producer,
			SchemaURL: SchemaURL,
			Inputs: []InputDataset{{
				Namespace: group.Dataset.Namespace,
				Name:      group.Dataset.Name,
				InputFacets: &InputFacets{
					DataQualityAssertions: &DataQualityAssertionsFacet{
						Assertions: group.Assertions,
					},
				},
			}},
			Outputs: []OutputDataset{},
		})
	}
	return events
}

// BuildLineageEvents constructs one COMPLETE event per model lineage.
// Inputs carry no facets; the output dataset carries an outputStatistics
// facet only when a matching execution result supplies a row count.
// Events are ordered by model id for deterministic payloads.
func BuildLineageEvents(lineages []lineage.ModelLineage, execResults map[string]lineage.ModelExecutionResult, runID string, job Job, at time.Time) ([]RunEvent, error) {
	sorted := append([]lineage.ModelLineage(nil), lineages...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModelID < sorted[j].ModelID })

	events := make([]RunEvent, 0, len(sorted))
	for _, ml := range sorted {
		if len(ml.Inputs) == 0 && len(ml.Outputs) == 0 {
			return nil, &EventError{ModelID: ml.ModelID, Reason: "lineage resolved to zero datasets"}
		}

		inputs := make([]InputDataset, 0, len(ml.Inputs))
		for _, in := range ml.Inputs {
			inputs = append(inputs, InputDataset{Namespace: in.Namespace, Name: in.Name})
		}

		outputs := make([]OutputDataset, 0, len(ml.Outputs))
		for _, out := range ml.Outputs {
			ds := OutputDataset{Namespace: out.Namespace, Name: out.Name}
			if exec, ok := execResults[ml.ModelID]; ok && exec.RowCount != nil {
				ds.OutputFacets = &OutputFacets{
					OutputStatistics: &OutputStatisticsFacet{RowCount: *exec.RowCount},
				}
			}
			outputs = append(outputs, ds)
		}

		events = append(events, RunEvent{
			EventType: EventComplete,
			EventTime: FormatEventTime(at),
			Run:       Run{RunID: runID},
			Job:       job,
			Producer:  Producer,
			SchemaURL: SchemaURL,
			Inputs:    inputs,
			Outputs:   outputs,
		})
	}
	return events, nil
}

// DefaultJobName returns "{project_name}.{command}", the dbt-ol
// compatible job name, falling back to "dbt.{command}" when the project
// name is unknown.
func DefaultJobName(projectName, command string) string {
	if projectName == "" {
		projectName = "dbt"
	}
	return projectName + "." + command
}
