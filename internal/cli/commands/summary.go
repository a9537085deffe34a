package commands

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/correlator-io/dbt-correlator/internal/lineage"
	"github.com/correlator-io/dbt-correlator/internal/openlineage"
)

// writeSummary renders per-dataset assertion and per-model lineage
// tables after emission.
func writeSummary(out io.Writer, groups []openlineage.DatasetAssertions, lineages []lineage.ModelLineage, execResults map[string]lineage.ModelExecutionResult) {
	if len(groups) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Dataset", "Assertions", "Failed"})
		for _, group := range groups {
			failed := 0
			for _, a := range group.Assertions {
				if !a.Success {
					failed++
				}
			}
			tw.AppendRow(table.Row{group.Dataset.String(), len(group.Assertions), failed})
		}
		tw.Render()
	}

	if len(lineages) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Model", "Inputs", "Rows"})
		for _, ml := range lineages {
			rows := "-"
			if exec, ok := execResults[ml.ModelID]; ok && exec.RowCount != nil {
				rows = formatRowCount(*exec.RowCount)
			}
			tw.AppendRow(table.Row{ml.ModelID, len(ml.Inputs), rows})
		}
		tw.Render()
	}
}

func formatRowCount(n int64) string {
	if n < 0 {
		return "-"
	}
	return strconv.FormatInt(n, 10)
}
