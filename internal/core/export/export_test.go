package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func sampleTable() *Table {
	return &Table{
		Title:   "Leads",
		Headers: []string{"Name", "Phone", "Status", "Created"},
		Rows: [][]interface{}{
			{"Ravi", "919876543210", "fresh", time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
			{"=HYPERLINK(\"x\")", "919800000000", "lost", nil},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatExcel, "excel": FormatExcel, "CSV": FormatCSV, "pdf": FormatPDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("docx accepted")
	}
}

func TestExcelExport(t *testing.T) {
	var buf bytes.Buffer
	ct, name, err := NewService().Export(FormatExcel, sampleTable(), "leads", &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasSuffix(name, ".xlsx") || !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("name=%q ct=%q", name, ct)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	// title, blank, header, 2 data rows
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5: %v", len(rows), rows)
	}
	if rows[2][0] != "Name" || rows[3][0] != "Ravi" || rows[3][3] != "2026-01-02 10:00" {
		t.Errorf("unexpected content: %v", rows)
	}
}

func TestCSVExportNeutralizesFormulas(t *testing.T) {
	var buf bytes.Buffer
	if _, _, err := NewService().Export(FormatCSV, sampleTable(), "leads", &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Name,Phone,Status,Created\n") {
		t.Errorf("header: %q", out)
	}
	if !strings.Contains(out, `"'=HYPERLINK(""x"")"`) {
		t.Errorf("formula not neutralized: %q", out)
	}
}

func TestPDFExportAndReceipt(t *testing.T) {
	var buf bytes.Buffer
	if _, _, err := NewService().Export(FormatPDF, sampleTable(), "leads", &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("export is not a PDF")
	}

	buf.Reset()
	r := &Receipt{ReceiptNo: "R-1", InstituteName: "Bright", StudentName: "Ravi", PaidAt: time.Now(), Amount: 5000, Method: "upi", TotalFee: 45000, PaidToDate: 20000}
	if err := WriteReceipt(r, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("receipt is not a PDF")
	}
	if r.Outstanding() != 25000 {
		t.Errorf("Outstanding = %v", r.Outstanding())
	}
}

type leadRecord struct {
	Name  string `csv:"name"`
	Phone string `csv:"phone"`
}

func TestRecordsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := MarshalRecords([]leadRecord{{"Ravi", "91987"}}, &buf); err != nil {
		t.Fatal(err)
	}

	var back []leadRecord
	if err := UnmarshalRecords(strings.NewReader("phone,name\n91999,Meena\n"), &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].Name != "Meena" || back[0].Phone != "91999" {
		t.Errorf("back = %+v", back)
	}
}
