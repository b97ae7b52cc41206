package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/infrastructure/fixtures"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

// Seeder loads the fixture datasets into an empty database
type Seeder struct {
	db        *sqlite.DB
	invoices  *InvoiceRepository
	anomalies *AnomalyRepository
	vendors   *VendorRepository
	reports   *ReportRepository
	hsn       *HSNRepository
	logger    *zap.Logger
}

// NewSeeder creates a seeder writing through the given repositories
func NewSeeder(db *sqlite.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:        db,
		invoices:  NewInvoiceRepository(db, logger),
		anomalies: NewAnomalyRepository(db, logger),
		vendors:   NewVendorRepository(db, logger),
		reports:   NewReportRepository(db, logger),
		hsn:       NewHSNRepository(db, logger),
		logger:    logger,
	}
}

// Seed inserts every fixture row in one transaction. A database that already
// holds invoices is left untouched and Seed returns false.
func (s *Seeder) Seed(ctx context.Context, set *fixtures.Set) (bool, error) {
	var existing int
	if err := s.db.Executor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&existing); err != nil {
		return false, fmt.Errorf("failed to inspect database: %w", err)
	}
	if existing > 0 {
		s.logger.Info("Database already seeded, skipping", zap.Int("invoices", existing))
		return false, nil
	}

	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range set.Invoices {
			if err := s.invoices.Create(ctx, &set.Invoices[i]); err != nil {
				return err
			}
		}
		for i := range set.Anomalies {
			if err := s.anomalies.Create(ctx, &set.Anomalies[i]); err != nil {
				return err
			}
		}
		for i := range set.Vendors {
			if err := s.vendors.Create(ctx, &set.Vendors[i]); err != nil {
				return err
			}
		}
		for i := range set.Reports {
			if err := s.reports.Create(ctx, &set.Reports[i]); err != nil {
				return err
			}
		}
		_, err := s.hsn.Upsert(ctx, set.HSN.Mappings)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed fixtures: %w", err)
	}

	s.logger.Info("Seeded fixture datasets",
		zap.Int("invoices", len(set.Invoices)),
		zap.Int("anomalies", len(set.Anomalies)),
		zap.Int("vendors", len(set.Vendors)),
		zap.Int("reports", len(set.Reports)),
		zap.Int("hsn_mappings", len(set.HSN.Mappings)))
	return true, nil
}
