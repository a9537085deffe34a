// Package main provides the dbt-correlator CLI.
package main

import (
	"os"

	"github.com/correlator-io/dbt-correlator/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
