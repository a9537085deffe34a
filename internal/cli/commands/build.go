package commands

import "github.com/spf13/cobra"

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build [-- dbt-args...]",
		Short: "Run dbt build and emit both lineage and test results",
		Long: `Run dbt build and emit model lineage events plus test events under a
single runId. Combining both under one run gives the backend a complete
picture: which datasets were produced, from what, and whether their
quality checks passed.`,
		Example: `  # Run dbt build and emit everything
  dbt-correlator build --correlator-endpoint http://localhost:8080/api/v1/lineage/events

  # Only emit from existing artifacts
  dbt-correlator build --skip-dbt-run --correlator-endpoint $CORRELATOR_ENDPOINT`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, "build", args)
		},
	}
}
