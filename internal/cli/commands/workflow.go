package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/correlator-io/dbt-correlator/internal/artifact"
	"github.com/correlator-io/dbt-correlator/internal/cli/config"
	"github.com/correlator-io/dbt-correlator/internal/dbt"
	"github.com/correlator-io/dbt-correlator/internal/lineage"
	"github.com/correlator-io/dbt-correlator/internal/openlineage"
)

// dbtRunner runs the wrapped dbt command and returns its exit code.
type dbtRunner interface {
	Run(ctx context.Context, command string, args []string) (int, error)
}

// eventEmitter delivers one batch of events.
type eventEmitter interface {
	Emit(ctx context.Context, events []openlineage.RunEvent) error
}

// Workflow drives one wrapped dbt invocation: START event, dbt
// execution, artifact parsing, event construction, batch emission.
// All events of the invocation share one runId and one job identity.
type Workflow struct {
	// Command is the wrapped dbt command: test, run or build.
	Command string

	Cfg     *config.Config
	Logger  *slog.Logger
	Runner  dbtRunner
	Emitter eventEmitter
	Out     io.Writer

	// Now and NewRunID are injectable for tests.
	Now      func() time.Time
	NewRunID func() string
}

// withLineage reports whether the command emits model lineage events.
func (w *Workflow) withLineage() bool {
	return w.Command == "run" || w.Command == "build"
}

// withTests reports whether the command emits test events.
func (w *Workflow) withTests() bool {
	return w.Command == "test" || w.Command == "build"
}

// Execute runs the workflow and returns the dbt exit code. Emission
// failures are logged but never change the exit code; artifact parse
// failures abort before any event is delivered.
func (w *Workflow) Execute(ctx context.Context, dbtArgs []string) (int, error) {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	newRunID := w.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	runID := newRunID()
	projectDir := w.Cfg.DBT.ProjectDir

	// Resolve the job identity; the manifest usually exists from prior
	// dbt commands, so a best-effort parse is enough for the job name.
	var manifest *artifact.Manifest
	jobName := w.Cfg.OpenLineage.JobName
	if jobName == "" {
		m, err := artifact.ParseManifest(dbt.ManifestPath(projectDir))
		if err != nil {
			jobName = openlineage.DefaultJobName("", w.Command)
		} else {
			manifest = m
			jobName = openlineage.DefaultJobName(m.Metadata.ProjectName, w.Command)
		}
	}
	job := openlineage.Job{Namespace: w.Cfg.OpenLineage.Namespace, Name: jobName}

	w.Logger.Info("starting workflow",
		"command", w.Command, "run_id", runID, "job", job.Name)

	lifecycle := openlineage.NewLifecycle()
	if err := lifecycle.Start(); err != nil {
		return 1, err
	}
	startEvent := openlineage.NewWrappingEvent(openlineage.EventStart, runID, job, now())

	// run and build emit START eagerly so the backend sees the run as
	// soon as dbt starts; test batches it with everything else.
	startInBatch := !w.withLineage()
	if !startInBatch {
		if err := w.Emitter.Emit(ctx, []openlineage.RunEvent{startEvent}); err != nil {
			w.Logger.Warn("failed to emit START event", "error", err)
		}
	}

	exitCode := 0
	if !w.Cfg.DBT.SkipRun {
		code, err := w.Runner.Run(ctx, w.Command, dbtArgs)
		if err != nil {
			return code, err
		}
		exitCode = code
	}

	rr, err := artifact.ParseRunResults(dbt.RunResultsPath(projectDir))
	if err != nil {
		return 1, err
	}
	if manifest == nil {
		manifest, err = artifact.ParseManifest(dbt.ManifestPath(projectDir))
		if err != nil {
			return 1, err
		}
	}
	graph := lineage.NewGraph(manifest)

	var (
		testEvents    []openlineage.RunEvent
		lineageEvents []openlineage.RunEvent
		groups        []openlineage.DatasetAssertions
		lineages      []lineage.ModelLineage
		execResults   map[string]lineage.ModelExecutionResult
	)

	if w.withTests() {
		var warnings []lineage.ResolutionWarning
		groups, warnings = openlineage.GroupTestsByDataset(rr, graph)
		for _, warn := range warnings {
			w.Logger.Warn("skipping test", "unique_id", warn.UniqueID, "reason", warn.Reason)
		}
		testEvents = openlineage.BuildTestEvents(groups, runID, job, now())
	}

	if w.withLineage() {
		executed := lineage.ExecutedModels(rr)
		filter := make(map[string]struct{}, len(executed))
		for _, id := range executed {
			filter[id] = struct{}{}
		}

		var warnings []lineage.ResolutionWarning
		lineages, warnings = graph.ExtractModelLineage(filter, w.Cfg.OpenLineage.DatasetNamespace)
		for _, warn := range warnings {
			w.Logger.Warn("skipping lineage input", "unique_id", warn.UniqueID, "reason", warn.Reason)
		}

		execResults = lineage.ModelExecutionResults(rr)
		lineageEvents, err = openlineage.BuildLineageEvents(lineages, execResults, runID, job, now())
		if err != nil {
			return 1, err
		}
	}

	terminalType, err := lifecycle.Finish(exitCode)
	if err != nil {
		return 1, err
	}
	terminal := openlineage.NewWrappingEvent(terminalType, runID, job, now())

	var start *openlineage.RunEvent
	if startInBatch {
		start = &startEvent
	}
	batch := openlineage.AssembleBatch(start, testEvents, lineageEvents, terminal)

	if err := w.Emitter.Emit(ctx, batch); err != nil {
		// Fire-and-forget: lineage must never fail the dbt run.
		w.Logger.Warn("failed to emit events", "error", err)
	} else {
		fmt.Fprintf(w.Out, "Emitted %d events\n", len(batch))
	}

	writeSummary(w.Out, groups, lineages, execResults)

	return exitCode, nil
}
