package port

import (
	"io"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// SpreadsheetExporter renders explorer and vendor tables as workbook bytes
type SpreadsheetExporter interface {
	ExportInvoices(invoices []entity.InvoiceRecord) ([]byte, error)
	ExportVendors(vendors []entity.VendorRecord, shares []entity.VendorShare) ([]byte, error)
}

// HSNImporter parses an uploaded HSN mapping file. The file name selects the format.
type HSNImporter interface {
	ParseHSN(name string, r io.Reader) ([]entity.HSNMapping, error)
}
