package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"renta/internal/app/dto"
)

const overviewSheet = "Overview"

// RenderExcel produces an xlsx workbook from the platform overview.
func RenderExcel(report dto.OverviewReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(overviewSheet)
	if err != nil {
		return nil, fmt.Errorf("report: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	f.SetCellValue(overviewSheet, "A1", "Platform overview")
	f.SetCellValue(overviewSheet, "B1", report.GeneratedAt.Format("2006-01-02 15:04"))

	row := 3
	row = writeSection(f, headerStyle, row, "Spaces by state", report.Spaces)
	row = writeSection(f, headerStyle, row, "Bookings by state", report.Bookings)

	writeHeader(f, headerStyle, row, "Totals")
	row++
	for _, line := range []struct {
		label string
		value string
	}{
		{"Registered users", fmt.Sprintf("%d", report.Users)},
		{"Reviews", fmt.Sprintf("%d", report.Reviews)},
		{"Active bookings total", formatMoney(report.ActiveTotal)},
		{"Prepayments collected", formatMoney(report.CollectedTotal)},
		{"Prepayments refunded", formatMoney(report.RefundedTotal)},
		{"Charges cancelled", formatMoney(report.CancelledCharge)},
	} {
		f.SetCellValue(overviewSheet, cell(1, row), line.label)
		f.SetCellValue(overviewSheet, cell(2, row), line.value)
		row++
	}

	row++
	if len(report.TopSpaces) > 0 {
		writeHeader(f, headerStyle, row, "Most booked spaces")
		row++
		for _, rank := range report.TopSpaces {
			title := rank.Title
			if title == "" {
				title = rank.SpaceID
			}
			f.SetCellValue(overviewSheet, cell(1, row), title)
			f.SetCellValue(overviewSheet, cell(2, row), rank.Bookings)
			row++
		}
		row++
	}

	if len(report.LedgerByDay) > 0 {
		writeHeader(f, headerStyle, row, "Transactions per day")
		row++
		for _, bucket := range report.LedgerByDay {
			f.SetCellValue(overviewSheet, cell(1, row), bucket.Date)
			f.SetCellValue(overviewSheet, cell(2, row), bucket.Count)
			f.SetCellValue(overviewSheet, cell(3, row), formatMoney(bucket.Net))
			row++
		}
	}

	f.SetColWidth(overviewSheet, "A", "A", 28)
	f.SetColWidth(overviewSheet, "B", "B", 20)
	f.SetColWidth(overviewSheet, "C", "C", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(f *excelize.File, style, row int, title string, counts map[string]int) int {
	writeHeader(f, style, row, title)
	row++
	for _, state := range sortedKeys(counts) {
		f.SetCellValue(overviewSheet, cell(1, row), state)
		f.SetCellValue(overviewSheet, cell(2, row), counts[state])
		row++
	}
	return row + 1
}

func writeHeader(f *excelize.File, style, row int, title string) {
	f.SetCellValue(overviewSheet, cell(1, row), title)
	f.SetCellStyle(overviewSheet, cell(1, row), cell(2, row), style)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatMoney(m dto.MoneyDTO) string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}
