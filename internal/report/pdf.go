// Package report renders downloadable PDF reports for equipment datasets.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
)

// ErrNoRecords is returned when a report is requested for a dataset with no
// records.
var ErrNoRecords = errors.New("dataset has no records to report")

// Generate renders a PDF containing the dataset metadata, its freshly
// computed statistics, the equipment type distribution and a listing of all
// records. Deterministic for identical input.
func Generate(dataset *entity.Dataset, summary *analytics.Summary, records []entity.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(26, 54, 93)
	pdf.CellFormat(0, 12, "Equipment Data Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(74, 85, 104)
	pdf.CellFormat(0, 6, fmt.Sprintf("File: %s", dataset.Filename), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Uploaded: %s", dataset.UploadedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total records: %d", summary.TotalEquipment), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	writeStatisticsTable(pdf, summary)
	writeDistributionTable(pdf, summary)
	writeRecordListing(pdf, records)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStatisticsTable(pdf *gofpdf.Fpdf, summary *analytics.Summary) {
	sectionHeader(pdf, "Summary Statistics")

	headers := []string{"Parameter", "Average", "Minimum", "Maximum", "Std Dev"}
	widths := []float64{50, 35, 35, 35, 35}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(45, 55, 72)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	rows := [][]string{
		{"Flowrate", num(summary.AvgFlowrate), num(summary.MinFlowrate), num(summary.MaxFlowrate), num(summary.StdFlowrate)},
		{"Pressure", num(summary.AvgPressure), num(summary.MinPressure), num(summary.MaxPressure), num(summary.StdPressure)},
		{"Temperature", num(summary.AvgTemperature), num(summary.MinTemperature), num(summary.MaxTemperature), num(summary.StdTemperature)},
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(74, 85, 104)
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 8, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

func writeDistributionTable(pdf *gofpdf.Fpdf, summary *analytics.Summary) {
	sectionHeader(pdf, "Equipment Type Distribution")

	types := make([]string, 0, len(summary.TypeDistribution))
	for t := range summary.TypeDistribution {
		types = append(types, t)
	}
	sort.Strings(types)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(45, 55, 72)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(95, 8, "Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(95, 8, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(74, 85, 104)
	for _, t := range types {
		pdf.CellFormat(95, 8, t, "1", 0, "L", false, 0, "")
		pdf.CellFormat(95, 8, strconv.Itoa(summary.TypeDistribution[t]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func writeRecordListing(pdf *gofpdf.Fpdf, records []entity.Record) {
	sectionHeader(pdf, "Equipment Records")

	headers := []string{"Name", "Type", "Flowrate", "Pressure", "Temperature"}
	widths := []float64{55, 40, 30, 30, 35}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(45, 55, 72)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(74, 85, 104)
	for _, record := range records {
		pdf.CellFormat(widths[0], 7, record.EquipmentName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, record.EquipmentType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, num(record.Flowrate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, num(record.Pressure), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, num(record.Temperature), "1", 1, "R", false, 0, "")
	}
}

func sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(45, 55, 72)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
