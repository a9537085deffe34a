package lineage

import (
	"fmt"
	"strings"

	"github.com/correlator-io/dbt-correlator/internal/artifact"
)

// ResolutionWarning records a recoverable lineage defect: a dangling
// dependency id or an unresolvable dataset. The affected test or input
// is skipped and processing continues.
type ResolutionWarning struct {
	UniqueID string
	Reason   string
}

func (w ResolutionWarning) String() string {
	return fmt.Sprintf("%s: %s", w.UniqueID, w.Reason)
}

// ModelLineage describes one model's dataset-level lineage.
type ModelLineage struct {
	ModelID string
	Inputs  []DatasetInfo
	Outputs []DatasetInfo
}

// ModelExecutionResult carries per-model runtime metrics from the run
// results. RowCount is nil when the adapter reported none.
type ModelExecutionResult struct {
	ModelID       string
	RowCount      *int64
	ExecutionTime float64
}

// ResolveTestTarget resolves a test node to the unique_id of its primary
// target. The target is the first non-test dependency in the manifest's
// declared order; relationship tests spanning two datasets therefore
// attribute their assertion to the first one. A nil warning means the
// resolution succeeded.
func (g *Graph) ResolveTestTarget(testID string) (string, *ResolutionWarning) {
	if _, ok := g.Node(testID); !ok {
		return "", &ResolutionWarning{UniqueID: testID, Reason: "test node not found in manifest"}
	}

	for _, dep := range g.Dependencies(testID) {
		node, ok := g.Node(dep)
		if !ok {
			return "", &ResolutionWarning{UniqueID: testID, Reason: fmt.Sprintf("dependency %s not found in manifest", dep)}
		}
		if !node.IsTest() {
			return dep, nil
		}
	}

	return "", &ResolutionWarning{UniqueID: testID, Reason: "test has no non-test dependencies"}
}

// ExtractModelLineage builds one ModelLineage per model node in the
// graph, restricted to modelFilter when non-nil. Inputs are the datasets
// of every non-test dependency; the output is the model's own dataset.
// Dependencies missing from the manifest are skipped with a warning.
func (g *Graph) ExtractModelLineage(modelFilter map[string]struct{}, namespaceOverride string) ([]ModelLineage, []ResolutionWarning) {
	var (
		lineages []ModelLineage
		warnings []ResolutionWarning
	)

	for _, id := range g.ModelIDs() {
		if modelFilter != nil {
			if _, ok := modelFilter[id]; !ok {
				continue
			}
		}
		node, _ := g.Node(id)

		ml := ModelLineage{
			ModelID: id,
			Outputs: []DatasetInfo{BuildDatasetInfo(node, g.meta, namespaceOverride)},
		}

		seen := make(map[DatasetInfo]struct{})
		for _, dep := range g.Dependencies(id) {
			upstream, ok := g.Node(dep)
			if !ok {
				warnings = append(warnings, ResolutionWarning{
					UniqueID: id,
					Reason:   fmt.Sprintf("dependency %s not found in manifest", dep),
				})
				continue
			}
			if upstream.IsTest() {
				continue
			}
			ds := BuildDatasetInfo(upstream, g.meta, namespaceOverride)
			if _, dup := seen[ds]; dup {
				continue
			}
			seen[ds] = struct{}{}
			ml.Inputs = append(ml.Inputs, ds)
		}

		lineages = append(lineages, ml)
	}

	return lineages, warnings
}

// ExecutedModels returns the unique_ids of models that actually executed
// in this invocation, in run-results order. Deriving this from the run
// results rather than the manifest keeps stale manifest nodes out of the
// emitted lineage.
func ExecutedModels(rr *artifact.RunResults) []string {
	var ids []string
	for _, r := range rr.Results {
		if strings.HasPrefix(r.UniqueID, "model.") {
			ids = append(ids, r.UniqueID)
		}
	}
	return ids
}

// ExecutedTests returns the test results that executed in this
// invocation, in run-results order.
func ExecutedTests(rr *artifact.RunResults) []artifact.Result {
	var tests []artifact.Result
	for _, r := range rr.Results {
		if strings.HasPrefix(r.UniqueID, "test.") {
			tests = append(tests, r)
		}
	}
	return tests
}

// ModelsWithTests returns the set of unique_ids targeted by at least one
// executed test. Only tests present in the run results contribute, so
// manifest tests that did not run are never surfaced.
func (g *Graph) ModelsWithTests(rr *artifact.RunResults) map[string]struct{} {
	models := make(map[string]struct{})
	for _, test := range ExecutedTests(rr) {
		target, warn := g.ResolveTestTarget(test.UniqueID)
		if warn != nil {
			continue
		}
		models[target] = struct{}{}
	}
	return models
}

// ModelExecutionResults extracts per-model runtime metrics from the run
// results, keyed by model unique_id. Row counts are carried through only
// when the adapter reported one; they are never fabricated.
func ModelExecutionResults(rr *artifact.RunResults) map[string]ModelExecutionResult {
	results := make(map[string]ModelExecutionResult)
	for _, r := range rr.Results {
		if !strings.HasPrefix(r.UniqueID, "model.") {
			continue
		}
		results[r.UniqueID] = ModelExecutionResult{
			ModelID:       r.UniqueID,
			RowCount:      r.RowsAffected,
			ExecutionTime: r.ExecutionTime,
		}
	}
	return results
}
