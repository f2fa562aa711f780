package output

import (
	"encoding/json"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/table"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// Printer writes command results in one output format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter returns a Printer for format, detecting it from the terminal
// when empty.
func NewPrinter(w io.Writer, format string) *Printer {
	return &Printer{w: w, format: DetectFormat(format)}
}

// Format returns the resolved output format.
func (p *Printer) Format() Format {
	return p.format
}

// Run prints a price run result. The wide format includes samples.
func (p *Printer) Run(r *catalogsync.RunResult) error {
	return p.Print(r, func() table.Data {
		return table.RunResultToTableData(r, p.format == FormatWide)
	})
}

// Runs prints several price run results, one table each.
func (p *Printer) Runs(results []*catalogsync.RunResult) error {
	if p.format.Structured() {
		return p.encode(results)
	}
	for _, r := range results {
		if err := p.Run(r); err != nil {
			return err
		}
	}
	return nil
}

// Flags prints an availability flag run result.
func (p *Printer) Flags(r *catalogsync.FlagResult) error {
	return p.Print(r, func() table.Data { return table.FlagResultToTableData(r) })
}

// History prints run summaries.
func (p *Printer) History(runs []history.RunSummary) error {
	return p.Print(runs, func() table.Data { return table.RunsToTableData(runs) })
}

// Entries prints the entries of one run. Structured formats get the
// entries without their store keys.
func (p *Printer) Entries(items []history.Item) error {
	entries := make([]history.Entry, len(items))
	for i, it := range items {
		entries[i] = it.Entry
	}
	return p.Print(entries, func() table.Data { return table.EntriesToTableData(items) })
}

// Revert prints a revert result.
func (p *Printer) Revert(r *revert.Result) error {
	return p.Print(r, func() table.Data { return table.RevertToTableData(r) })
}

// Feed prints parsed feed records, truncated to limit rows in table formats.
func (p *Printer) Feed(res *feed.ParseResult, limit int) error {
	return p.Print(res, func() table.Data { return table.FeedToTableData(res, limit) })
}

// Print encodes v in JSON and YAML formats and renders rows() in table
// formats. Without rows, tables fall back to indented JSON.
func (p *Printer) Print(v any, rows func() table.Data) error {
	if p.format.Structured() || rows == nil {
		return p.encode(v)
	}
	return p.render(rows())
}

func (p *Printer) encode(v any) error {
	if p.format == FormatYAML {
		data, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) render(data table.Data) error {
	config := tablewriter.Config{}
	if len(data.ColumnAlignment) > 0 {
		align := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			align[i] = twAlign(a)
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: align}
		config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	t := tablewriter.NewTable(p.w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		t.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := t.Append(cells(row)...); err != nil {
			return err
		}
	}
	return t.Render()
}

func twAlign(a table.Align) tw.Align {
	switch a {
	case table.AlignLeft:
		return tw.AlignLeft
	case table.AlignCenter:
		return tw.AlignCenter
	case table.AlignRight:
		return tw.AlignRight
	default:
		return tw.Skip
	}
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
