package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the sheet name used by WriteXLSX.
const XLSXSheet = "results"

// WriteXLSX writes recs as a one-sheet workbook with the CSV column order.
// Numbers are stored as numeric cells.
func WriteXLSX(w io.Writer, recs []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	header := make([]any, 0, len(CSVHeader))
	for _, h := range CSVHeader {
		header = append(header, h)
	}
	if err := f.SetSheetRow(XLSXSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(XLSXSheet, 1, 1, headerStyle)
	}

	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Timestamp,
			string(r.Course),
			r.Net,
			r.Detail.Paid,
			r.Detail.Gain,
			r.Typing.Correct,
			r.Typing.AverageTPS,
			r.Typing.Miss,
		}
		if err := f.SetSheetRow(XLSXSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
