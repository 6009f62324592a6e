package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format is an export file format
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts the query-string spellings the console sends
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use xlsx, csv or pdf)", s)
}

// Table is a titled grid of values
type Table struct {
	Title       string
	Subtitle    string
	Headers     []string
	Rows        [][]interface{}
	GeneratedAt time.Time
}

// Exporter writes a Table in one format
type Exporter interface {
	Export(t *Table, w io.Writer) error
	ContentType() string
	Extension() string
}

// Service picks the exporter for a format
type Service struct {
	exporters map[Format]Exporter
}

func NewService() *Service {
	return &Service{exporters: map[Format]Exporter{
		FormatExcel: NewExcelExporter(),
		FormatCSV:   NewCSVExporter(),
		FormatPDF:   NewPDFExporter(),
	}}
}

// Export writes t to w and returns the content type and a file name
func (s *Service) Export(format Format, t *Table, baseName string, w io.Writer) (contentType, fileName string, err error) {
	e, ok := s.exporters[format]
	if !ok {
		return "", "", fmt.Errorf("unsupported export format %q", format)
	}
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = time.Now()
	}
	if err := e.Export(t, w); err != nil {
		return "", "", err
	}
	fileName = fmt.Sprintf("%s-%s%s", baseName, t.GeneratedAt.Format("20060102-1504"), e.Extension())
	return e.ContentType(), fileName, nil
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case float64:
		return fmt.Sprintf("%.2f", x)
	}
	return fmt.Sprintf("%v", v)
}
