package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

const invoiceColumns = `id, invoice_no, vendor, invoice_date, amount, vendor_gstin, company_gstin,
	accuracy, risk_score, flags, status`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a fixture invoice
func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.InvoiceRecord) error {
	flags := inv.Flags
	if flags == nil {
		flags = []string{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		inv.ID, inv.InvoiceNo, inv.Vendor, inv.Date, inv.Amount,
		inv.VendorGSTIN, inv.CompanyGSTIN, inv.Accuracy, inv.RiskScore,
		string(flagsJSON), string(inv.Status),
	)
	if err != nil {
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_no", inv.InvoiceNo),
			zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Search matches the query against invoice number and vendor, case-insensitively.
// An empty status or "all" disables the status filter.
func (r *InvoiceRepository) Search(ctx context.Context, filter entity.InvoiceFilter) ([]entity.InvoiceRecord, error) {
	var (
		where []string
		args  []interface{}
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		where = append(where, `(LOWER(invoice_no) LIKE ? ESCAPE '\' OR LOWER(vendor) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" && filter.Status != "all" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to search invoices",
			zap.String("query", filter.Query),
			zap.String("status", string(filter.Status)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to search invoices: %w", err)
	}
	defer rows.Close()

	invoices := []entity.InvoiceRecord{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

// GetByNumber returns entity.ErrNotFound when no invoice carries the number
func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNo string) (*entity.InvoiceRecord, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_no = ?`

	inv, err := scanInvoice(r.db.Executor(ctx).QueryRowContext(ctx, query, invoiceNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceNo, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by number",
			zap.String("invoice_no", invoiceNo),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*entity.InvoiceRecord, error) {
	var (
		inv       entity.InvoiceRecord
		flagsJSON string
		status    string
	)
	err := row.Scan(
		&inv.ID, &inv.InvoiceNo, &inv.Vendor, &inv.Date, &inv.Amount,
		&inv.VendorGSTIN, &inv.CompanyGSTIN, &inv.Accuracy, &inv.RiskScore,
		&flagsJSON, &status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	if err := json.Unmarshal([]byte(flagsJSON), &inv.Flags); err != nil {
		return nil, fmt.Errorf("failed to decode flags of %s: %w", inv.InvoiceNo, err)
	}
	if inv.Flags == nil {
		inv.Flags = []string{}
	}
	inv.Status = entity.InvoiceStatus(status)
	return &inv, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
