// Package export renders explorer and vendor tables as XLSX workbooks and
// reads HSN mapping uploads.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

const (
	invoiceSheet = "Invoices"
	vendorSheet  = "Vendors"
	shareSheet   = "Distribution"
)

var (
	invoiceHeader = []string{"Invoice No", "Vendor", "Date", "Amount", "Vendor GSTIN",
		"Company GSTIN", "Accuracy (%)", "Risk Score", "Flags", "Status"}
	vendorHeader = []string{"Vendor", "Total Invoices", "Total Spend", "Avg Accuracy (%)",
		"Risk Score", "Anomalies", "Last Anomaly", "Trend"}
	shareHeader = []string{"Vendor", "Spend", "Share (%)"}
)

// Workbook implements port.SpreadsheetExporter with excelize
type Workbook struct {
	logger *zap.Logger
}

// NewWorkbook creates a new workbook exporter
func NewWorkbook(logger *zap.Logger) *Workbook {
	return &Workbook{logger: logger}
}

// ExportInvoices writes one row per invoice below a bold header
func (w *Workbook) ExportInvoices(invoices []entity.InvoiceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []interface{}{
			inv.InvoiceNo, inv.Vendor, inv.Date, inv.Amount, inv.VendorGSTIN,
			inv.CompanyGSTIN, inv.Accuracy, inv.RiskScore, strings.Join(inv.Flags, ", "),
			string(inv.Status),
		})
	}
	if err := w.writeTable(f, invoiceSheet, invoiceHeader, rows); err != nil {
		return nil, err
	}

	return w.finish(f, "invoices", len(invoices))
}

// ExportVendors writes the performance table and the spending distribution on a second sheet
func (w *Workbook) ExportVendors(vendors []entity.VendorRecord, shares []entity.VendorShare) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", vendorSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, []interface{}{
			v.Name, v.TotalInvoices, v.TotalSpend, v.AvgAccuracy,
			v.RiskScore, v.AnomalyCount, v.LastAnomaly, string(v.Trend),
		})
	}
	if err := w.writeTable(f, vendorSheet, vendorHeader, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(shareSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}
	shareRows := make([][]interface{}, 0, len(shares))
	for _, s := range shares {
		shareRows = append(shareRows, []interface{}{s.Name, s.Spend, s.Percent})
	}
	if err := w.writeTable(f, shareSheet, shareHeader, shareRows); err != nil {
		return nil, err
	}

	return w.finish(f, "vendors", len(vendors))
}

func (w *Workbook) writeTable(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("failed to write header %s: %w", cell, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("failed to resolve row cell: %w", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}
	return nil
}

func (w *Workbook) finish(f *excelize.File, what string, rows int) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		w.logger.Error("Failed to render workbook", zap.String("table", what), zap.Error(err))
		return nil, fmt.Errorf("failed to render %s workbook: %w", what, err)
	}

	w.logger.Debug("Workbook rendered",
		zap.String("table", what),
		zap.Int("rows", rows),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

var _ port.SpreadsheetExporter = (*Workbook)(nil)
