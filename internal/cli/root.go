// Package cli provides the command-line interface for dbt-correlator.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/correlator-io/dbt-correlator/internal/cli/commands"
	"github.com/correlator-io/dbt-correlator/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbt-correlator",
		Short: "Emit dbt test results and lineage as OpenLineage events",
		Long: `dbt-correlator wraps dbt invocations and converts the produced
artifacts (run_results.json, manifest.json) into OpenLineage events,
delivered as one batch to Correlator or any OpenLineage-compatible
backend.

Test results become dataQualityAssertions facets, model runs become
dataset lineage with runtime metrics, and everything from one invocation
shares a single runId for correlation.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Commands that never touch config or dbt
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			if cfg.Verbose {
				if used := config.GetConfigFileUsed(); used != "" {
					logger.Debug("using config file", "path", used)
				}
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.dbt-correlator.yml)")
	pf.String("project-dir", ".", "Path to dbt project directory")
	pf.String("profiles-dir", "~/.dbt", "Path to dbt profiles directory")
	pf.String("correlator-endpoint", "", "OpenLineage API endpoint URL (env: CORRELATOR_ENDPOINT)")
	pf.String("correlator-api-key", "", "Optional API key for authentication (env: CORRELATOR_API_KEY)")
	pf.String("openlineage-namespace", "dbt", "Namespace for OpenLineage events (env: OPENLINEAGE_NAMESPACE)")
	pf.String("job-name", "", "Job name for OpenLineage events (default: {project_name}.{command})")
	pf.String("dataset-namespace", "", "Dataset namespace override (default: {adapter}://{database}, env: DBT_CORRELATOR_NAMESPACE)")
	pf.Bool("skip-dbt-run", false, "Skip running dbt, only emit events from existing artifacts")
	pf.BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewTestCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// A wrapped dbt invocation's exit code passes through unchanged.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *commands.ExitError
		if errors.As(err, &exitErr) {
			// dbt already reported its own failure on the console
			return exitErr.Code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
