package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"renta/internal/app/dto"
)

// RenderPDF produces a one-page PDF summary of the platform overview.
func RenderPDF(report dto.OverviewReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Platform overview", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Platform overview")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, "Generated at "+report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(12)

	section(pdf, "Spaces by state", report.Spaces)
	section(pdf, "Bookings by state", report.Bookings)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	line(pdf, "Registered users", fmt.Sprintf("%d", report.Users))
	line(pdf, "Reviews", fmt.Sprintf("%d", report.Reviews))
	line(pdf, "Active bookings total", formatMoney(report.ActiveTotal))
	line(pdf, "Prepayments collected", formatMoney(report.CollectedTotal))
	line(pdf, "Prepayments refunded", formatMoney(report.RefundedTotal))
	line(pdf, "Charges cancelled", formatMoney(report.CancelledCharge))
	pdf.Ln(4)

	if len(report.TopSpaces) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Most booked spaces")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, rank := range report.TopSpaces {
			title := rank.Title
			if title == "" {
				title = rank.SpaceID
			}
			line(pdf, title, fmt.Sprintf("%d", rank.Bookings))
		}
		pdf.Ln(4)
	}

	if len(report.LedgerByDay) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Transactions per day")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, bucket := range report.LedgerByDay {
			line(pdf, bucket.Date, fmt.Sprintf("%d / %s", bucket.Count, formatMoney(bucket.Net)))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string, counts map[string]int) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, state := range sortedKeys(counts) {
		line(pdf, state, fmt.Sprintf("%d", counts[state]))
	}
	pdf.Ln(4)
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(70, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "R", false, 0, "")
}
