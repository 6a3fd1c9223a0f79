// Package export renders the attendance log as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rfidattendance/internal/attendance"
)

const (
	SheetTimeIns = "Time-ins"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var timeInHeader = []string{"Date", "Time", "Student number", "Name", "Institute"}

// WriteTimeIns writes entries to w as a single-sheet XLSX workbook with a
// bold, filterable header row.
func WriteTimeIns(w io.Writer, entries []attendance.Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetTimeIns); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetTimeIns, "A1", &timeInHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []string{e.Date, e.Time, e.StudentNumber, e.Name, e.Institute}
		if err := f.SetSheetRow(SheetTimeIns, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(timeInHeader))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetTimeIns, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.AutoFilter(SheetTimeIns, "A1:"+last+"1", nil); err != nil {
		return fmt.Errorf("header filter: %w", err)
	}
	if err := f.SetColWidth(SheetTimeIns, "A", last, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
