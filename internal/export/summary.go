package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/scorecharts/internal/core"
)

// WriteSummaryCSV writes the overall summary table as CSV.
func WriteSummaryCSV(w io.Writer, records []core.StudentRecord) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(core.SummaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.SummaryRow()); err != nil {
			return fmt.Errorf("write summary row for %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	summarySheet = "Summary"
	scoresSheet  = "Scores"
)

// WriteSummaryXLSX writes a workbook with the overall summary on one sheet
// and every (student, subject, score) triple on another.
func WriteSummaryXLSX(w io.Writer, records []core.StudentRecord) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(scoresSheet); err != nil {
		return fmt.Errorf("add scores sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(core.SummaryHeader))
	for i, h := range core.SummaryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{
			r.Name,
			round1(r.Average),
			round1(r.TotalAchieved),
			r.SubjectCount(),
			round1(r.TotalPercentage),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row for %q: %w", r.Name, err)
		}
	}

	if err := f.SetSheetRow(scoresSheet, "A1", &[]any{"Student", "Subject", "Score (%)"}); err != nil {
		return err
	}
	line := 2
	for _, r := range records {
		for i, subject := range r.Subjects {
			cell, _ := excelize.CoordinatesToCellName(1, line)
			if err := f.SetSheetRow(scoresSheet, cell, &[]any{r.Name, subject, r.Scores[i]}); err != nil {
				return fmt.Errorf("score row for %q: %w", r.Name, err)
			}
			line++
		}
	}

	for sheet, last := range map[string]string{summarySheet: "E", scoresSheet: "C"} {
		if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
