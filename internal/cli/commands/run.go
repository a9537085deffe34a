package commands

import "github.com/spf13/cobra"

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- dbt-args...]",
		Short: "Run dbt run and emit model lineage as OpenLineage events",
		Long: `Run dbt run, extract input/output dataset lineage for every executed
model and emit one OpenLineage event per model. Output datasets carry an
outputStatistics facet with the row count when the adapter reports one.

The START event is emitted before dbt starts so the backend sees the run
immediately; the remaining events are delivered as one batch after dbt
finishes.`,
		Example: `  # Run dbt and emit lineage
  dbt-correlator run --correlator-endpoint http://localhost:8080/api/v1/lineage/events

  # Pass arguments through to dbt run
  dbt-correlator run --correlator-endpoint $CORRELATOR_ENDPOINT -- --select my_model

  # Override the derived dataset namespace
  dbt-correlator run --dataset-namespace postgresql://localhost:5432/mydb`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, "run", args)
		},
	}
}
