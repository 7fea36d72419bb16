package catalog

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/area-check/internal/geometry"
)

// decodeXLSX reads vertex rows from a spreadsheet, see fromTable.
func decodeXLSX(path string, opts FileOptions) (Document, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open xlsx")
	}

	sheet, err := xlsxSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		rows[i] = xlsxRow(row)
	}
	return fromTable("xlsx sheet "+sheet.Name, rows, opts)
}

// fromTable builds a document from tabular rows whose first row is a header
// naming the Longitud and Latitud columns. When an id column is present, rows are
// grouped by id in first-seen order; otherwise the table is one flat region.
func fromTable(name string, rows [][]string, opts FileOptions) (Document, error) {
	if len(rows) == 0 {
		return FlatRegion{}, nil
	}

	header := rows[0]
	lonIdx := columnIndex(header, "Longitud", "lon", "lng", "longitude")
	latIdx := columnIndex(header, "Latitud", "lat", "latitude")
	if lonIdx < 0 || latIdx < 0 {
		return nil, eris.Errorf("catalog: %s needs Longitud and Latitud columns", name)
	}
	idIdx := columnIndex(header, idField(opts))

	var (
		flat   []geometry.RawPoint
		groups []Group
		byID   = map[string]int{}
	)
	for _, cells := range rows[1:] {
		p := geometry.RawPoint{Longitud: cell(cells, lonIdx), Latitud: cell(cells, latIdx)}
		if idIdx < 0 {
			flat = append(flat, p)
			continue
		}

		id := strings.TrimSpace(cell(cells, idIdx))
		if id == "" {
			continue
		}
		i, ok := byID[id]
		if !ok {
			i = len(groups)
			byID[id] = i
			groups = append(groups, Group{ID: id})
		}
		groups[i].Coordinates = append(groups[i].Coordinates, p)
	}

	if idIdx < 0 {
		return FlatRegion{Points: flat}, nil
	}
	return GroupedRegions{Groups: groups}, nil
}

func xlsxSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("catalog: xlsx sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("catalog: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}

func xlsxRow(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, c := range row.Cells {
		cells[j] = c.String()
	}
	return cells
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// columnIndex returns the index of the first header matching any name, or -1.
func columnIndex(header []string, names ...string) int {
	for _, n := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), n) {
				return i
			}
		}
	}
	return -1
}
