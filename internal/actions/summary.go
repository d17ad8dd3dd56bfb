package actions

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// MarkdownTable renders a GitHub flavoured markdown table
func MarkdownTable(header []string, rows [][]string) string {
	w := table.NewWriter()
	w.AppendHeader(toRow(header))
	for _, r := range rows {
		w.AppendRow(toRow(r))
	}
	return w.RenderMarkdown()
}

func toRow(cols []string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}
