package export

import (
	"fmt"
	"io"
	"time"

	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/jung-kurt/gofpdf"
)

// Receipt is a fee payment receipt
type Receipt struct {
	ReceiptNo      string
	InstituteName  string
	InstituteEmail string
	InstitutePhone string
	StudentName    string
	StudentPhone   string
	CourseName     string
	PaidAt         time.Time
	Amount         float64
	Method         string
	Reference      string
	TotalFee       float64
	PaidToDate     float64
}

// Outstanding is the balance after this payment
func (r *Receipt) Outstanding() float64 {
	if r.PaidToDate >= r.TotalFee {
		return 0
	}
	return r.TotalFee - r.PaidToDate
}

// WriteReceipt renders a single-page A5 receipt
func WriteReceipt(r *Receipt, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, tr(r.InstituteName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	contact := r.InstitutePhone
	if r.InstituteEmail != "" {
		if contact != "" {
			contact += "  |  "
		}
		contact += r.InstituteEmail
	}
	if contact != "" {
		pdf.CellFormat(0, 5, tr(contact), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFillColor(31, 78, 121)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "FEE RECEIPT", "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(38, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	line("Receipt No.", r.ReceiptNo)
	line("Date", r.PaidAt.Format("02 Jan 2006"))
	line("Student", r.StudentName)
	if r.StudentPhone != "" {
		line("Phone", r.StudentPhone)
	}
	if r.CourseName != "" {
		line("Course", r.CourseName)
	}
	line("Payment method", r.Method)
	if r.Reference != "" {
		line("Reference", r.Reference)
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	amountRow := func(label string, v float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(80, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, "Rs. "+utils.FormatAmount(v), "1", 1, "R", false, 0, "")
	}
	amountRow("Amount received", r.Amount, true)
	amountRow("Total course fee", r.TotalFee, false)
	amountRow("Paid to date", r.PaidToDate, false)
	amountRow("Balance outstanding", r.Outstanding(), true)

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, "This is a computer generated receipt and does not require a signature.", "", "C", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}
