package catalog

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSV reads vertex rows from a delimited text export, see fromTable.
// Semicolon separated files, the spreadsheet export format of decimal comma
// locales, are detected from the header line and may use "," in coordinates.
func decodeCSV(data []byte, opts FileOptions) (Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = csvDelimiter(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: decode csv")
	}
	for _, row := range rows {
		for i, field := range row {
			row[i] = strings.TrimSpace(field)
		}
	}
	if r.Comma == ';' && len(rows) > 0 {
		decimalPoint(rows, columnIndex(rows[0], "Longitud", "lon", "lng", "longitude"))
		decimalPoint(rows, columnIndex(rows[0], "Latitud", "lat", "latitude"))
	}
	return fromTable("csv", rows, opts)
}

// decimalPoint rewrites "-3,72" as "-3.72" in column idx of the data rows.
func decimalPoint(rows [][]string, idx int) {
	if idx < 0 {
		return
	}
	for _, row := range rows[1:] {
		if idx < len(row) {
			row[idx] = strings.Replace(row[idx], ",", ".", 1)
		}
	}
}

func csvDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}
