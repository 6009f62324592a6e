package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// CSVExporter writes RFC 4180 CSV
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

func (e *CSVExporter) Export(t *Table, w io.Writer) error {
	out := gocsv.NewSafeCSVWriter(csv.NewWriter(w))

	if err := out.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, values := range t.Rows {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = neutralizeFormula(cellString(v))
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	out.Flush()
	return out.Error()
}

func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *CSVExporter) Extension() string { return ".csv" }

// MarshalRecords writes a slice of csv-tagged structs with a header row.
func MarshalRecords(records interface{}, w io.Writer) error {
	return gocsv.Marshal(records, w)
}

// UnmarshalRecords reads csv-tagged structs, matching columns by header.
func UnmarshalRecords(r io.Reader, out interface{}) error {
	return gocsv.Unmarshal(r, out)
}

// neutralizeFormula stops spreadsheet apps from evaluating user-entered
// text such as "=HYPERLINK(...)" when the CSV is opened.
func neutralizeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '@', '\t', '\r':
		return "'" + s
	case '+', '-':
		if len(s) > 1 && !strings.ContainsAny(s[1:2], "0123456789") {
			return "'" + s
		}
	}
	return s
}
