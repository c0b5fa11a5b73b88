package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/and161185/intakedesk/internal/form"
	"github.com/and161185/intakedesk/internal/model"
)

// SheetName is the worksheet written by ExportXLSX.
const SheetName = "Records"

// ExportHeader is the first row of the export.
func ExportHeader() []string {
	h := []string{"id", "createdAt", "editedAt"}
	h = append(h, form.BaseFields...)
	return append(h, "doors")
}

func exportRow(r model.Record) []any {
	row := make([]any, 0, len(form.BaseFields)+4)
	row = append(row, r.ID, stamp(r.CreatedAt), stamp(r.EditedAt))
	for _, f := range form.BaseFields {
		row = append(row, r.Get(f))
	}
	doors := make([]string, 0, len(r.Equipment))
	for i, d := range r.Equipment {
		doors = append(doors, fmt.Sprintf("%d: %s", i+1, joinNonEmpty(" / ", d["door"], d["operator"], d[form.DoorSizeField])))
	}
	return append(row, strings.Join(doors, " | "))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// ExportXLSX writes records to a single-sheet workbook, one row per record.
func ExportXLSX(w io.Writer, records []model.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	header := ExportHeader()
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &hdr); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
