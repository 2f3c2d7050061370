// Package format renders CLI tables for terminals and Markdown reports.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal table
	Markdown             // GitHub-flavoured Markdown table
)

// Table is a row-oriented table rendered in one Mode.
type Table struct {
	w    table.Writer
	mode Mode
	cols []table.ColumnConfig
}

// NewTable returns an empty table with the given headers.
func NewTable(m Mode, headers ...string) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	if len(headers) > 0 {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		w.AppendHeader(row)
	}
	return &Table{w: w, mode: m}
}

// Append adds one row. Values are printed with fmt's %v.
func (t *Table) Append(vals ...any) {
	t.w.AppendRow(table.Row(vals))
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.cols = append(t.cols, table.ColumnConfig{Number: c, Align: text.AlignRight})
	}
	t.w.SetColumnConfigs(t.cols)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.w.Length() }

// String renders the table.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}
