package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvColumns maps normalized header names to the field they feed.
var csvColumns = map[string]string{
	"date and time": "ts",
	"datetime":      "ts",
	"timestamp":     "ts",
	"timecreated":   "ts",
	"source":        "source",
	"provider":      "source",
	"providername":  "source",
	"event id":      "code",
	"eventid":       "code",
	"id":            "code",
	"code":          "code",
}

// decodeCSV reads an Event Viewer "Save As CSV" export. Columns are found
// by header name; extra columns (Level, Task Category, message text) are
// ignored.
func decodeCSV(r io.Reader) ([]Raw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	idx := map[string]int{"ts": -1, "source": -1, "code": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := csvColumns[key]; ok && idx[field] < 0 {
			idx[field] = i
		}
	}
	if idx["ts"] < 0 || idx["code"] < 0 {
		return nil, fmt.Errorf("csv header %q: need a date and an event id column", header)
	}

	var out []Raw
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("csv line: %w", err)
		}
		out = append(out, Raw{
			Timestamp: cell(row, idx["ts"]),
			Source:    cell(row, idx["source"]),
			Code:      cell(row, idx["code"]),
		})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
