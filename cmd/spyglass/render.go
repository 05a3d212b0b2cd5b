package main

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/spyglass-dev/spyglass/fetch"
	"github.com/spyglass-dev/spyglass/registry"
)

func renderRows(w io.Writer, kind registry.ResourceKind, rows []fetch.Row) {
	table := tablewriter.NewWriter(w)

	headers := make([]string, 0, len(kind.Columns))
	for _, col := range kind.Columns {
		headers = append(headers, col.Label)
	}
	table.Header(headers)

	for _, row := range rows {
		values := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			values = append(values, cell.Value)
		}
		_ = table.Append(values)
	}
	_ = table.Render()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rawItems unwraps rows to the provider's own response shapes for JSON
// output.
func rawItems(rows []fetch.Row) []any {
	items := make([]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Raw)
	}
	return items
}
