package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/correlator-io/dbt-correlator/internal/cli/config"
	"github.com/correlator-io/dbt-correlator/internal/openlineage"
	"github.com/correlator-io/dbt-correlator/internal/testutil"
)

// stubRunner records the invocation and returns a fixed exit code.
type stubRunner struct {
	exitCode int
	err      error

	gotCommand string
	gotArgs    []string
	calls      int
}

func (r *stubRunner) Run(_ context.Context, command string, args []string) (int, error) {
	r.calls++
	r.gotCommand = command
	r.gotArgs = args
	return r.exitCode, r.err
}

// stubEmitter captures every Emit call.
type stubEmitter struct {
	err     error
	batches [][]openlineage.RunEvent
}

func (e *stubEmitter) Emit(_ context.Context, events []openlineage.RunEvent) error {
	e.batches = append(e.batches, events)
	return e.err
}

const workflowRunResults = `{
	"metadata": {
		"dbt_schema_version": "https://schemas.getdbt.com/dbt/run-results/v5.json",
		"dbt_version": "1.8.0",
		"generated_at": "2024-06-01T12:30:00Z",
		"invocation_id": "inv-1"
	},
	"results": [
		{"unique_id": "model.jaffle_shop.orders", "status": "success", "execution_time": 1.3,
		 "adapter_response": {"rows_affected": 99}},
		{"unique_id": "test.jaffle_shop.not_null_orders_order_id.abc", "status": "pass", "execution_time": 0.05},
		{"unique_id": "test.jaffle_shop.unique_orders_order_id.def", "status": "fail", "execution_time": 0.07, "failures": 3}
	]
}`

const workflowManifest = `{
	"metadata": {
		"dbt_schema_version": "https://schemas.getdbt.com/dbt/manifest/v12.json",
		"adapter_type": "duckdb",
		"project_name": "jaffle_shop"
	},
	"nodes": {
		"model.jaffle_shop.orders": {
			"resource_type": "model", "database": "shop", "schema": "main", "name": "orders",
			"depends_on": {"nodes": ["source.jaffle_shop.raw.orders"]}
		},
		"test.jaffle_shop.not_null_orders_order_id.abc": {
			"resource_type": "test", "name": "not_null_orders_order_id", "column_name": "order_id",
			"test_metadata": {"name": "not_null"},
			"depends_on": {"nodes": ["model.jaffle_shop.orders"]}
		},
		"test.jaffle_shop.unique_orders_order_id.def": {
			"resource_type": "test", "name": "unique_orders_order_id", "column_name": "order_id",
			"test_metadata": {"name": "unique"},
			"depends_on": {"nodes": ["model.jaffle_shop.orders"]}
		}
	},
	"sources": {
		"source.jaffle_shop.raw.orders": {
			"resource_type": "source", "database": "shop", "schema": "raw",
			"name": "orders", "identifier": "raw_orders"
		}
	}
}`

// writeArtifacts populates a project dir with target/ artifacts and
// returns the dir.
func writeArtifacts(t *testing.T) string {
	t.Helper()
	projectDir := t.TempDir()
	target := filepath.Join(projectDir, "target")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "run_results.json"), []byte(workflowRunResults), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "manifest.json"), []byte(workflowManifest), 0o644))
	return projectDir
}

func newWorkflow(t *testing.T, command, projectDir string, runner *stubRunner, emitter *stubEmitter) (*Workflow, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	w := &Workflow{
		Command: command,
		Cfg: &config.Config{
			Correlator:  config.CorrelatorConfig{Endpoint: "http://localhost:8080/events"},
			OpenLineage: config.OpenLineageConfig{Namespace: "dbt"},
			DBT:         config.DBTConfig{ProjectDir: projectDir},
		},
		Logger:   testutil.NewLogger(t),
		Runner:   runner,
		Emitter:  emitter,
		Out:      out,
		Now:      func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) },
		NewRunID: func() string { return "run-1" },
	}
	return w, out
}

func TestWorkflow_Test(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, out := newWorkflow(t, "test", writeArtifacts(t), runner, emitter)

	code, err := w.Execute(context.Background(), []string{"--select", "orders"})
	require.NoError(t, err)
	assert.Zero(t, code)

	assert.Equal(t, "test", runner.gotCommand)
	assert.Equal(t, []string{"--select", "orders"}, runner.gotArgs)

	// one batch: START, one test event, COMPLETE
	require.Len(t, emitter.batches, 1)
	batch := emitter.batches[0]
	require.Len(t, batch, 3)
	assert.Equal(t, openlineage.EventStart, batch[0].EventType)
	assert.Equal(t, openlineage.EventComplete, batch[1].EventType)
	assert.Equal(t, openlineage.EventComplete, batch[2].EventType)

	// every event carries the same runId and job identity
	for _, event := range batch {
		assert.Equal(t, "run-1", event.Run.RunID)
		assert.Equal(t, "dbt", event.Job.Namespace)
		assert.Equal(t, "jaffle_shop.test", event.Job.Name)
	}

	// both tests grouped into one dataset input
	testEvent := batch[1]
	require.Len(t, testEvent.Inputs, 1)
	assert.Equal(t, "duckdb://shop", testEvent.Inputs[0].Namespace)
	assert.Equal(t, "main.orders", testEvent.Inputs[0].Name)
	require.NotNil(t, testEvent.Inputs[0].InputFacets)
	assertions := testEvent.Inputs[0].InputFacets.DataQualityAssertions.Assertions
	require.Len(t, assertions, 2)
	assert.True(t, assertions[0].Success)
	assert.False(t, assertions[1].Success)

	assert.Contains(t, out.String(), "Emitted 3 events")
}

func TestWorkflow_Run(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "run", writeArtifacts(t), runner, emitter)

	code, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, code)

	// START goes out eagerly, then the rest as one batch
	require.Len(t, emitter.batches, 2)
	require.Len(t, emitter.batches[0], 1)
	assert.Equal(t, openlineage.EventStart, emitter.batches[0][0].EventType)

	batch := emitter.batches[1]
	require.Len(t, batch, 2)

	lineageEvent := batch[0]
	assert.Equal(t, openlineage.EventComplete, lineageEvent.EventType)
	require.Len(t, lineageEvent.Inputs, 1)
	assert.Equal(t, "raw.raw_orders", lineageEvent.Inputs[0].Name)
	require.Len(t, lineageEvent.Outputs, 1)
	assert.Equal(t, "main.orders", lineageEvent.Outputs[0].Name)
	require.NotNil(t, lineageEvent.Outputs[0].OutputFacets)
	assert.EqualValues(t, 99, lineageEvent.Outputs[0].OutputFacets.OutputStatistics.RowCount)

	assert.Equal(t, openlineage.EventComplete, batch[1].EventType)
}

func TestWorkflow_Build(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "build", writeArtifacts(t), runner, emitter)

	code, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, code)

	// eager START plus test event, lineage event, terminal
	require.Len(t, emitter.batches, 2)
	batch := emitter.batches[1]
	require.Len(t, batch, 3)
	// tests come before lineage
	require.NotEmpty(t, batch[0].Inputs)
	assert.NotNil(t, batch[0].Inputs[0].InputFacets)
	assert.NotEmpty(t, batch[1].Outputs)
	assert.Equal(t, openlineage.EventComplete, batch[2].EventType)
}

func TestWorkflow_DBTFailure(t *testing.T) {
	runner := &stubRunner{exitCode: 1}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "test", writeArtifacts(t), runner, emitter)

	code, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	// events are still built and the terminal event is FAIL
	require.Len(t, emitter.batches, 1)
	batch := emitter.batches[0]
	require.Len(t, batch, 3)
	assert.Equal(t, openlineage.EventFail, batch[len(batch)-1].EventType)
}

func TestWorkflow_SkipRun(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "test", writeArtifacts(t), runner, emitter)
	w.Cfg.DBT.SkipRun = true

	code, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Zero(t, runner.calls)
	require.Len(t, emitter.batches, 1)
}

func TestWorkflow_EmitFailureDoesNotChangeExitCode(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{err: errors.New("connection refused")}
	w, out := newWorkflow(t, "test", writeArtifacts(t), runner, emitter)

	code, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.NotContains(t, out.String(), "Emitted")
}

func TestWorkflow_MissingArtifacts(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "test", t.TempDir(), runner, emitter)

	code, err := w.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, code)
	// no events delivered when parsing fails
	assert.Empty(t, emitter.batches)
}

func TestWorkflow_JobNameOverride(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "test", writeArtifacts(t), runner, emitter)
	w.Cfg.OpenLineage.JobName = "custom.job"

	_, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, emitter.batches, 1)
	assert.Equal(t, "custom.job", emitter.batches[0][0].Job.Name)
}

func TestWorkflow_DatasetNamespaceOverride(t *testing.T) {
	runner := &stubRunner{}
	emitter := &stubEmitter{}
	w, _ := newWorkflow(t, "run", writeArtifacts(t), runner, emitter)
	w.Cfg.OpenLineage.DatasetNamespace = "snowflake://prod"

	_, err := w.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, emitter.batches, 2)
	lineageEvent := emitter.batches[1][0]
	assert.Equal(t, "snowflake://prod", lineageEvent.Outputs[0].Namespace)
	assert.Equal(t, "snowflake://prod", lineageEvent.Inputs[0].Namespace)
}
