// Package report renders machine history as an Excel workbook.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/application/port"
	"github.com/garyjia/gumball-machine/internal/domain/entity"
)

const (
	summarySheet = "Summary"
	historySheet = "History"
)

var historyHeader = []interface{}{
	"ID", "Timestamp", "Trigger", "Previous State", "New State",
	"Inventory", "Units Released", "Kinds", "Messages",
}

// ExcelWriter builds a two-sheet workbook: a summary and the raw history
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// ContentType is the MIME type of the produced document
func (w *ExcelWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write renders the workbook and returns its bytes
func (w *ExcelWriter) Write(summary *entity.SalesSummary, records []*entity.TransitionRecord) ([]byte, error) {
	w.logger.Info("Writing sales report",
		zap.String("machine_id", summary.MachineID),
		zap.Int("rows", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	w.setCell(f, summarySheet, "A1", "Machine")
	w.setCell(f, summarySheet, "B1", summary.MachineID)
	w.setCell(f, summarySheet, "A2", "Operations")
	w.setCell(f, summarySheet, "B2", summary.Operations)
	w.setCell(f, summarySheet, "A3", "Units Released")
	w.setCell(f, summarySheet, "B3", summary.UnitsReleased)
	w.setCell(f, summarySheet, "A4", "Refills")
	w.setCell(f, summarySheet, "B4", summary.Refills)
	w.setCell(f, summarySheet, "A5", "Refunds")
	w.setCell(f, summarySheet, "B5", summary.Refunds)

	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}

	header := historyHeader
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write history header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		row := []interface{}{
			r.ID,
			r.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			r.Trigger,
			r.PreviousState,
			r.NewState,
			r.Inventory,
			r.UnitsReleased,
			r.MessageKinds,
			r.MessageText,
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write history row %d: %w", r.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// setCell sets a cell value, logging instead of failing on bad input
func (w *ExcelWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// Verify interface compliance
var _ port.ReportWriter = (*ExcelWriter)(nil)
