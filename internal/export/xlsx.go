// Package export renders the current record lists as an xlsx workbook
// with one sheet per record type and a trailing totals row.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ardiutama/Piutang/internal/core"
)

const (
	SheetReceivables = "Receivables"
	SheetRevenues    = "Revenues"
)

// Workbook builds xlsx exports from in-memory record lists.
type Workbook struct {
	receivables []core.Receivable
	revenues    []core.Revenue
}

// NewWorkbook creates a workbook over the given lists. Lists are
// written in the order given, so callers sort before exporting.
func NewWorkbook(receivables []core.Receivable, revenues []core.Revenue) *Workbook {
	return &Workbook{
		receivables: receivables,
		revenues:    revenues,
	}
}

// WriteTo renders the workbook and writes it to w.
func (wb *Workbook) WriteTo(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetReceivables)
	if _, err := f.NewSheet(SheetRevenues); err != nil {
		return fmt.Errorf("%w: create sheet: %v", core.ErrPersistence, err)
	}

	if err := wb.writeReceivables(f); err != nil {
		return err
	}
	if err := wb.writeRevenues(f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: write workbook: %v", core.ErrPersistence, err)
	}
	return nil
}

func (wb *Workbook) writeReceivables(f *excelize.File) error {
	header := []any{"ID", "Description", "Total", "Paid", "Remaining", "Due date"}
	if err := setRow(f, SheetReceivables, 1, header); err != nil {
		return err
	}

	row := 2
	for _, r := range wb.receivables {
		due := ""
		if !r.DueDate.IsEmpty() {
			due = r.DueDate.String()
		}
		cells := []any{r.ID, r.Description, r.Total.Units, r.Paid.Units, r.Remaining().Units, due}
		if err := setRow(f, SheetReceivables, row, cells); err != nil {
			return err
		}
		row++
	}

	summary := core.SummarizeReceivables(wb.receivables)
	totals := []any{"", "Total", summary.Total.Units, summary.Total.Sub(summary.Remaining).Units, summary.Remaining.Units, ""}
	return setRow(f, SheetReceivables, row, totals)
}

func (wb *Workbook) writeRevenues(f *excelize.File) error {
	header := []any{"ID", "Description", "Amount", "Date"}
	if err := setRow(f, SheetRevenues, 1, header); err != nil {
		return err
	}

	row := 2
	for _, r := range wb.revenues {
		date := ""
		if !r.Date.IsEmpty() {
			date = r.Date.String()
		}
		cells := []any{r.ID, r.Description, r.Amount.Units, date}
		if err := setRow(f, SheetRevenues, row, cells); err != nil {
			return err
		}
		row++
	}

	summary := core.SummarizeRevenues(wb.revenues)
	return setRow(f, SheetRevenues, row, []any{"", "Total", summary.Total.Units, ""})
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: cell name: %v", core.ErrPersistence, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("%w: set row: %v", core.ErrPersistence, err)
	}
	return nil
}
