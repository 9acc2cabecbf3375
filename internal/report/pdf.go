package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/probo/internal/models"
)

// Detail table column widths in mm: No, Test Parameter, Status, Time,
// Details, Screenshot. Sized for A4 portrait with default margins.
var detailColWidths = []float64{12, 60, 20, 25, 45, 28}

func writePDF(summary *models.RunSummary, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Microclimate Dashboard Test Report", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Target URL: "+summary.TargetURL, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Run ID: "+summary.RunID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Started: "+summary.StartedAt.Format("02/01/2006 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Completed: "+summary.CompletedAt.Format("02/01/2006 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Duration: %.1f seconds", summary.DurationSeconds()), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	writeSummarySection(pdf, summary)
	writeDetailTable(pdf, summary)
	writePerformanceSection(pdf, summary)

	pdf.Ln(15)
	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "Generated by the dashboard test harness", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Report date: "+summary.CompletedAt.Format("2 January 2006"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return pdf.OutputFileAndClose(path)
}

func writeSummarySection(pdf *fpdf.Fpdf, summary *models.RunSummary) {
	total := len(summary.Steps)
	passed := summary.SuccessCount()
	rate := 0.0
	if total > 0 {
		rate = float64(passed) / float64(total) * 100
	}

	verdict := "PASSED"
	if !summary.Passed {
		verdict = "FAILED"
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "TEST SUMMARY", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Steps: %d", total), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Passed: %d", passed), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Failed: %d", total-passed), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Success Rate: %.1f%%", rate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Overall Verdict: %s (threshold %.0f%%)", verdict, summary.Threshold*100), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

func writeDetailTable(pdf *fpdf.Fpdf, summary *models.RunSummary) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "DETAILED RESULTS", "", 1, "L", false, 0, "")
	pdf.Ln(3)

	headers := []string{"No", "Test Parameter", "Status", "Time", "Details", "Screenshot"}
	lineHeight := 4.0

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(detailColWidths[i], 12, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i, step := range summary.Steps {
		status := "PASS"
		if !step.Success {
			status = "FAIL"
		}
		screenshot := ""
		if step.Evidence != "" {
			screenshot = filepath.Base(step.Evidence)
		}

		cells := []string{
			fmt.Sprintf("%d", i+1),
			step.Name,
			status,
			step.Timestamp.Format("15:04:05"),
			step.Details,
			screenshot,
		}
		drawWrappedRow(pdf, cells, lineHeight)
	}
	pdf.Ln(3)
}

func writePerformanceSection(pdf *fpdf.Fpdf, summary *models.RunSummary) {
	stats := models.AggregateSamples(summary.Samples)
	if len(stats) == 0 {
		return
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "PERFORMANCE SUMMARY", "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{50, 20, 30, 30, 30, 30}
	headers := []string{"Category", "Count", "Avg (ms)", "Max (ms)", "Violations", "Success"}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, stat := range stats {
		cells := []string{
			stat.Category,
			fmt.Sprintf("%d", stat.Count),
			fmt.Sprintf("%d", stat.AvgMs),
			fmt.Sprintf("%d", stat.MaxMs),
			fmt.Sprintf("%d", stat.Violations),
			fmt.Sprintf("%.0f%%", stat.SuccessRate*100),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// drawWrappedRow renders one detail table row, wrapping each cell's text
// and sizing the row to the tallest cell.
func drawWrappedRow(pdf *fpdf.Fpdf, cells []string, lineHeight float64) {
	maxLines := 1
	wrapped := make([][]string, len(cells))
	for i, cell := range cells {
		wrapped[i] = wrapText(pdf, cell, detailColWidths[i]-2)
		if len(wrapped[i]) > maxLines {
			maxLines = len(wrapped[i])
		}
	}
	if maxLines > 8 {
		maxLines = 8
	}

	rowHeight := float64(maxLines)*lineHeight + 2
	startX := pdf.GetX()
	startY := pdf.GetY()

	// Page break before the row overflows the bottom margin
	if startY+rowHeight > 282 {
		pdf.AddPage()
		startX = pdf.GetX()
		startY = pdf.GetY()
	}

	x := startX
	for i, lines := range wrapped {
		pdf.Rect(x, startY, detailColWidths[i], rowHeight, "D")
		pdf.SetXY(x+1, startY+1)
		for j := 0; j < len(lines) && j < maxLines; j++ {
			line := lines[j]
			if j == maxLines-1 && len(lines) > maxLines {
				for pdf.GetStringWidth(line+"...") > detailColWidths[i]-2 && len(line) > 3 {
					line = line[:len(line)-1]
				}
				line += "..."
			}
			pdf.CellFormat(detailColWidths[i]-2, lineHeight, line, "", 2, "L", false, 0, "")
		}
		x += detailColWidths[i]
	}

	pdf.SetXY(startX, startY+rowHeight)
}

// wrapText splits text into lines that fit width using measured widths
func wrapText(pdf *fpdf.Fpdf, text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	currentWidth := 0.0
	spaceWidth := pdf.GetStringWidth(" ")

	for _, word := range words {
		wordWidth := pdf.GetStringWidth(word)
		switch {
		case current == "":
			current = word
			currentWidth = wordWidth
		case currentWidth+spaceWidth+wordWidth <= width:
			current += " " + word
			currentWidth += spaceWidth + wordWidth
		default:
			lines = append(lines, current)
			current = word
			currentWidth = wordWidth
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
