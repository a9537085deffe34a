package commands

import "fmt"

// ExitError carries a non-zero dbt exit code through cobra so the
// process can exit with the same code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("dbt exited with code %d", e.Code)
}
