// Package sheet reads entry rows from the first worksheet of an .xlsx file.
package sheet

import (
	"fmt"
	"io"
	"strings"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// Row is one non-blank data row. Line is the 1-based worksheet row number.
type Row struct {
	Line    int
	WSN     string
	Fields  map[string]string
	Product map[string]string
}

// Sheet is the parsed content of an upload.
type Sheet struct {
	Name    string
	Rows    []Row
	Ignored []string
}

// Parse reads the first worksheet of r. The header row is matched against the
// profile's identifier, editable and read-only fields; other columns are
// reported as ignored. maxRows <= 0 disables the row limit.
func Parse(r io.Reader, p profile.Profile, maxRows int) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, apperr.Validation("file is not a readable xlsx workbook")
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return Sheet{}, apperr.Validation("workbook has no sheets")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return Sheet{}, apperr.Validation("sheet is empty")
	}

	columns, ignored := mapHeader(rows[0], p)
	idCol := -1
	for i, field := range columns {
		if field == p.IdentifierField {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return Sheet{}, apperr.Validation(fmt.Sprintf("sheet has no %s column", p.IdentifierField))
	}

	out := Sheet{Name: name, Ignored: ignored}
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		if maxRows > 0 && len(out.Rows) == maxRows {
			return Sheet{}, apperr.Validation(fmt.Sprintf("sheet exceeds %d rows", maxRows))
		}
		row := Row{Line: i + 2, Fields: map[string]string{}, Product: map[string]string{}}
		for col, field := range columns {
			if field == "" || col >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[col])
			switch {
			case field == p.IdentifierField:
				row.WSN = value
			case value == "":
			case p.IsEditable(field):
				row.Fields[field] = value
			case p.IsReadOnly(field):
				row.Product[field] = value
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if len(out.Rows) == 0 {
		return Sheet{}, apperr.Validation("sheet has no data rows")
	}
	return out, nil
}

// mapHeader returns the profile field for each column ("" when unmatched)
// and the header labels that matched nothing.
func mapHeader(header []string, p profile.Profile) ([]string, []string) {
	columns := make([]string, len(header))
	var ignored []string
	seen := make(map[string]bool, len(header))
	for i, label := range header {
		field := HeaderKey(label)
		if field == "" {
			continue
		}
		known := field == p.IdentifierField || p.IsEditable(field) || p.IsReadOnly(field)
		if !known || seen[field] {
			ignored = append(ignored, strings.TrimSpace(label))
			continue
		}
		seen[field] = true
		columns[i] = field
	}
	return columns, ignored
}

// HeaderKey folds a header label to the field naming used by profiles:
// lowercase with spaces and hyphens collapsed to underscores.
func HeaderKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(label)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
