package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// render writes a decoded response as JSON or as a table of columns.
func render(w io.Writer, format string, columns []string, data any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "table":
		return renderTable(w, columns, data)
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrUsage, format)
	}
}

func renderTable(w io.Writer, columns []string, data any) error {
	rows, next := tableRows(data)
	if len(columns) == 0 && len(rows) > 0 {
		for key := range rows[0] {
			columns = append(columns, key)
		}
		sort.Strings(columns)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = strings.ToUpper(col)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatCell(row[col])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if next != "" {
		fmt.Fprintf(w, "\nnext token: %s\n", next)
	}
	return nil
}

// tableRows accepts a page ({"items": [...]}) or a single object.
func tableRows(data any) ([]map[string]any, string) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, ""
	}
	items, isPage := obj["items"].([]any)
	if !isPage {
		return []map[string]any{obj}, ""
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	next, _ := obj["next_token"].(string)
	return rows, next
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return "-"
	case []any:
		if len(value) == 0 {
			return "-"
		}
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case string:
		if value == "" {
			return "-"
		}
		return value
	default:
		return fmt.Sprint(value)
	}
}
