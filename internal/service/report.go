package service

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportHeaders = []string{"Date", "Amount", "Name", "Category"}

// ReportSheetName is the worksheet holding a ledger export.
func ReportSheetName(kind domain.TransactionKind) string {
	if kind == domain.KindIncome {
		return "Income Details"
	}
	return "Expense Details"
}

// ReportFilename is the attachment name of a ledger export.
func ReportFilename(kind domain.TransactionKind) string {
	return string(kind) + "_details.xlsx"
}

// RenderWorkbook writes txs, in the given order, to a single-sheet workbook.
func RenderWorkbook(kind domain.TransactionKind, txs []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ReportSheetName(kind)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0000FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", headerStyle); err != nil {
		return nil, err
	}

	for i, tx := range txs {
		row := i + 2
		values := []any{
			tx.Date.Format(time.DateOnly),
			float64(tx.AmountCents) / 100,
			tx.Name,
			tx.CategoryName,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "D", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
