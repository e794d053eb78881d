// Package export writes attendance records to an xlsx workbook and reads them back.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/xuri/excelize/v2"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no attendance records found")

// Header is the first row of the report.
var Header = []string{"Name", "UID", "CID", "Time"}

// Write encodes records as a single-sheet workbook to w.
func Write(w io.Writer, records []attendance.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), constants.ReportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(constants.ReportSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		row := []any{r.Name, r.UID, r.CID, r.Time}
		if err := f.SetSheetRow(constants.ReportSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(constants.ReportSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(constants.ReportSheet, "D", "D", 20); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Bytes returns the workbook for records.
func Bytes(records []attendance.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a report written by Write.
func Read(r io.Reader) ([]attendance.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(constants.ReportSheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", constants.ReportSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header", constants.ReportSheet)
	}
	for i, h := range Header {
		if i >= len(rows[0]) || rows[0][i] != h {
			return nil, fmt.Errorf("unexpected header %v", rows[0])
		}
	}

	records := make([]attendance.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		row = append(row, make([]string, len(Header))...)
		records = append(records, attendance.Record{
			Name: row[0],
			UID:  row[1],
			CID:  row[2],
			Time: row[3],
		})
	}
	return records, nil
}
