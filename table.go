package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"eventlens-client/internal/normalize"
)

const emptyCell = "-"

// column is one table column. Numeric columns are right aligned, header included.
type column struct {
	header  string
	numeric bool
}

func textColumns(headers ...string) []column {
	columns := make([]column, len(headers))
	for i, h := range headers {
		columns[i] = column{header: h}
	}
	return columns
}

// recordColumns derives columns for normalized records. A key is numeric when
// it is the match count, or when every record carrying it holds a JSON number.
func recordColumns(records []normalize.Record, keys ...string) []column {
	columns := make([]column, len(keys))
	for i, key := range keys {
		columns[i] = column{header: key, numeric: key == normalize.KeyMatchCount || allNumbers(records, key)}
	}
	return columns
}

func allNumbers(records []normalize.Record, key string) bool {
	seen := false
	for _, rec := range records {
		switch rec[key].(type) {
		case nil:
		case float64, int, int64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// renderTable draws rows under columns. Short rows are padded and empty
// cells are shown as a dash.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: align}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			r[i] = emptyCell
			if i < len(row) && row[i] != "" {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
