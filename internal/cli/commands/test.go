package commands

import "github.com/spf13/cobra"

// NewTestCommand creates the test command.
func NewTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test [-- dbt-args...]",
		Short: "Run dbt test and emit test results as OpenLineage events",
		Long: `Run dbt test, parse the produced artifacts and emit OpenLineage events
carrying a dataQualityAssertions facet for every tested dataset.

All events of the invocation share one runId, so the backend can
correlate test failures with the lineage that produced the data.`,
		Example: `  # Run dbt test and emit results
  dbt-correlator test --correlator-endpoint http://localhost:8080/api/v1/lineage/events

  # Pass arguments through to dbt test
  dbt-correlator test --correlator-endpoint $CORRELATOR_ENDPOINT -- --select my_model

  # Only emit from existing artifacts
  dbt-correlator test --skip-dbt-run --correlator-endpoint $CORRELATOR_ENDPOINT`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, "test", args)
		},
	}
}
