package export

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	SheetConsolidated = "Consolidado"
	SheetEvaluations  = "Evaluaciones"

	defaultSheet = "Sheet1"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName is the default name of a workbook built at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("emprendimientos-%s.xlsx", t.Format("20060102-1504"))
}

// Workbook wraps an excelize file being filled with tables.
type Workbook struct {
	f      *excelize.File
	header int // bold style
	sheets []string
}

func newWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "creating header style")
	}
	return &Workbook{f: f, header: style}, nil
}

func (wb *Workbook) addSheet(name string, t Table) error {
	idx, err := wb.f.NewSheet(name)
	if err != nil {
		return errors.Wrapf(err, "creating sheet %s", name)
	}
	if len(wb.sheets) == 0 {
		wb.f.SetActiveSheet(idx)
	}
	wb.sheets = append(wb.sheets, name)

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := wb.f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.Wrapf(err, "writing %s header", name)
	}
	if err := wb.f.SetRowStyle(name, 1, 1, wb.header); err != nil {
		return errors.Wrapf(err, "styling %s header", name)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := wb.f.SetSheetRow(name, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", name, i+2)
		}
	}
	return nil
}

// Sheets returns the sheet names in creation order.
func (wb *Workbook) Sheets() []string { return wb.sheets }

// File exposes the underlying workbook, mostly for reading it back.
func (wb *Workbook) File() *excelize.File { return wb.f }

// WriteTo writes the xlsx document.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	return wb.f.WriteTo(w)
}

func (wb *Workbook) Close() error { return wb.f.Close() }

func (wb *Workbook) finish() error {
	if err := wb.f.DeleteSheet(defaultSheet); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}
	if idx, err := wb.f.GetSheetIndex(wb.sheets[0]); err == nil {
		wb.f.SetActiveSheet(idx)
	}
	return nil
}

// SectionWorkbook builds one sheet per selected section.
func SectionWorkbook(records []Record, sections []Section) (*Workbook, error) {
	if len(sections) == 0 {
		sections = Sections
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if err := wb.addSheet(s.Title, SectionTable(records, s)); err != nil {
			wb.Close()
			return nil, err
		}
	}
	if err := wb.finish(); err != nil {
		wb.Close()
		return nil, err
	}
	return wb, nil
}

// MassWorkbook builds the combined sheet plus one evaluation per row detail sheet.
func MassWorkbook(records []Record, sections []Section) (*Workbook, error) {
	if len(sections) == 0 {
		sections = Sections
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	if err := wb.addSheet(SheetConsolidated, BuildRows(records, sections)); err != nil {
		wb.Close()
		return nil, err
	}
	if err := wb.addSheet(SheetEvaluations, EvaluationTable(records)); err != nil {
		wb.Close()
		return nil, err
	}
	if err := wb.finish(); err != nil {
		wb.Close()
		return nil, err
	}
	return wb, nil
}
