// Package commands implements the dbt-correlator subcommands.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/correlator-io/dbt-correlator/internal/cli/config"
	"github.com/correlator-io/dbt-correlator/internal/dbt"
	"github.com/correlator-io/dbt-correlator/internal/emitter"
)

// runWorkflow builds and executes the workflow for one subcommand.
func runWorkflow(cmd *cobra.Command, command string, dbtArgs []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)

	runner := &dbt.Runner{
		ProjectDir:  cfg.DBT.ProjectDir,
		ProfilesDir: cfg.DBT.ProfilesDir,
		Logger:      logger,
	}

	em := emitter.New(emitter.Config{
		Endpoint: cfg.Correlator.Endpoint,
		APIKey:   cfg.Correlator.APIKey,
		Timeout:  cfg.Correlator.Timeout,
	}, logger)

	wf := &Workflow{
		Command: command,
		Cfg:     cfg,
		Logger:  logger,
		Runner:  runner,
		Emitter: em,
		Out:     cmd.OutOrStdout(),
		Now:     time.Now,
	}

	code, err := wf.Execute(ctx, dbtArgs)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
