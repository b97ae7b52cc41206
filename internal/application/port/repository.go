package port

import (
	"context"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// InvoiceRepository serves the invoice explorer
type InvoiceRepository interface {
	Search(ctx context.Context, filter entity.InvoiceFilter) ([]entity.InvoiceRecord, error)
	GetByNumber(ctx context.Context, invoiceNo string) (*entity.InvoiceRecord, error)
}

// AnomalyRepository serves the anomaly center
type AnomalyRepository interface {
	// List returns all anomalies, or those of one category when category is non-empty
	List(ctx context.Context, category entity.AnomalyCategory) ([]entity.AnomalyRecord, error)
	CountByCategory(ctx context.Context) (map[entity.AnomalyCategory]int, error)
}

// VendorRepository serves vendor analytics
type VendorRepository interface {
	List(ctx context.Context) ([]entity.VendorRecord, error)
}

// ReportRepository serves the recent reports list
type ReportRepository interface {
	List(ctx context.Context) ([]entity.ReportRecord, error)
	GetByID(ctx context.Context, id string) (*entity.ReportRecord, error)
}

// HSNRepository stores the HSN to GST rate mapping table
type HSNRepository interface {
	List(ctx context.Context) ([]entity.HSNMapping, error)
	Upsert(ctx context.Context, mappings []entity.HSNMapping) (int, error)
}

// TransactionManager manages database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
