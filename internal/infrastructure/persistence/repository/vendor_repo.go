package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sqlite.DB, logger *zap.Logger) *VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a fixture vendor
func (r *VendorRepository) Create(ctx context.Context, v *entity.VendorRecord) error {
	query := `
		INSERT INTO vendors (id, name, total_invoices, total_spend, avg_accuracy,
			risk_score, anomaly_count, last_anomaly, trend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		v.ID, v.Name, v.TotalInvoices, v.TotalSpend, v.AvgAccuracy,
		v.RiskScore, v.AnomalyCount, v.LastAnomaly, string(v.Trend),
	)
	if err != nil {
		r.logger.Error("Failed to create vendor",
			zap.String("name", v.Name),
			zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// List returns vendors in id order
func (r *VendorRepository) List(ctx context.Context) ([]entity.VendorRecord, error) {
	query := `
		SELECT id, name, total_invoices, total_spend, avg_accuracy,
			risk_score, anomaly_count, last_anomaly, trend
		FROM vendors
		ORDER BY id
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []entity.VendorRecord{}
	for rows.Next() {
		var (
			v     entity.VendorRecord
			trend string
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.TotalInvoices, &v.TotalSpend, &v.AvgAccuracy,
			&v.RiskScore, &v.AnomalyCount, &v.LastAnomaly, &trend); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		v.Trend = entity.Trend(trend)
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vendors: %w", err)
	}
	return vendors, nil
}

var _ port.VendorRepository = (*VendorRepository)(nil)
