// Package dbt invokes the external dbt command and locates the
// artifacts it writes.
package dbt

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates the dbt executable is not installed or not on
// PATH.
var ErrNotFound = errors.New("dbt executable not found")

// ExitNotFound is the conventional shell exit code for a missing
// command.
const ExitNotFound = 127

// Runner executes dbt commands with output streamed to the console.
type Runner struct {
	// Bin is the dbt executable; "dbt" when empty.
	Bin string
	// ProjectDir is the dbt project directory.
	ProjectDir string
	// ProfilesDir is the dbt profiles directory; ~ is expanded.
	ProfilesDir string

	Logger *slog.Logger
}

// Run executes `dbt <command>` with the configured directories and any
// passthrough arguments, and returns dbt's exit code. A non-zero exit
// is not an error here; only failure to start the process is.
func (r *Runner) Run(ctx context.Context, command string, args []string) (int, error) {
	bin := r.Bin
	if bin == "" {
		bin = "dbt"
	}

	cmdArgs := []string{
		command,
		"--project-dir", r.ProjectDir,
		"--profiles-dir", ExpandHome(r.ProfilesDir),
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, bin, cmdArgs...)
	cmd.Dir = r.ProjectDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	r.Logger.Debug("running dbt", "command", command, "args", args)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ExitNotFound, ErrNotFound
	}
	return ExitNotFound, err
}

// RunResultsPath returns the run_results.json path for a project.
func RunResultsPath(projectDir string) string {
	return filepath.Join(projectDir, "target", "run_results.json")
}

// ManifestPath returns the manifest.json path for a project.
func ManifestPath(projectDir string) string {
	return filepath.Join(projectDir, "target", "manifest.json")
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
