// Package output renders baseline/reform summary tables in the supported
// serialization formats.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/iwvelando/capcost/internal/engine"
	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// columns is the header shared by every tabular rendering.
var columns = []string{"", "Baseline", "Reform", "Change"}

// Write renders a summary to w in the requested format.
func Write(w io.Writer, summary *engine.Summary, format string) error {
	switch format {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, summary)
	case constants.OutputFormatCSV:
		return CsvFormat(w, summary)
	case constants.OutputFormatJSON:
		return JSONFormat(w, summary)
	case constants.OutputFormatHTML:
		return HTMLFormat(w, summary)
	case constants.OutputFormatTex:
		return TexFormat(w, summary)
	case constants.OutputFormatExcel:
		return ExcelFormat(w, summary)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, summary *engine.Summary) error {
	p := message.NewPrinter(language.English)
	if _, err := fmt.Fprintf(w, "--- %s ---\n", summary.Variable); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-24s | %10s | %10s | %10s\n", "", "Baseline", "Reform", "Change")
	fmt.Fprintf(w, "%-24s | %10s | %10s | %10s\n", "________________________", "________", "______", "______")
	for _, row := range summary.Rows {
		_, err := p.Fprintf(w, "%-24s | %10.3f | %10.3f | %10.3f\n",
			row.Label, row.Baseline, row.Reform, row.Change)
		if err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat writes the table in comma-separated value format.
func CsvFormat(w io.Writer, summary *engine.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range summary.Rows {
		record := []string{
			row.Label,
			strconv.FormatFloat(row.Baseline, 'f', -1, 64),
			strconv.FormatFloat(row.Reform, 'f', -1, 64),
			strconv.FormatFloat(row.Change, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat writes the table as an indented JSON document.
func JSONFormat(w io.Writer, summary *engine.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

var htmlTemplate = template.Must(template.New("summary").Parse(`<table>
  <caption>{{.Variable}}</caption>
  <thead>
    <tr><th></th><th>Baseline</th><th>Reform</th><th>Change</th></tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr><td>{{.Label}}</td><td>{{printf "%.3f" .Baseline}}</td><td>{{printf "%.3f" .Reform}}</td><td>{{printf "%.3f" .Change}}</td></tr>
{{- end}}
  </tbody>
</table>
`))

// HTMLFormat writes the table as an HTML fragment.
func HTMLFormat(w io.Writer, summary *engine.Summary) error {
	return htmlTemplate.Execute(w, summary)
}

// TexFormat writes the table as a LaTeX tabular environment.
func TexFormat(w io.Writer, summary *engine.Summary) error {
	if _, err := fmt.Fprintln(w, `\begin{tabular}{lrrr}`); err != nil {
		return err
	}
	fmt.Fprintln(w, `\hline`)
	fmt.Fprintln(w, ` & Baseline & Reform & Change \\`)
	fmt.Fprintln(w, `\hline`)
	for _, row := range summary.Rows {
		if _, err := fmt.Fprintf(w, `%s & %.3f & %.3f & %.3f \\`+"\n",
			texEscape(row.Label), row.Baseline, row.Reform, row.Change); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, `\hline`)
	_, err := fmt.Fprintln(w, `\end{tabular}`)
	return err
}

func texEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '&', '%', '$', '#', '_', '{', '}':
			out = append(out, '\\', r)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// ExcelFormat writes the table as a single-sheet xlsx workbook.
func ExcelFormat(w io.Writer, summary *engine.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{summary.Variable}); err != nil {
		return err
	}
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	for i, row := range summary.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		values := []interface{}{row.Label, row.Baseline, row.Reform, row.Change}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
