package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

// AnomalyRepository implements port.AnomalyRepository
type AnomalyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAnomalyRepository creates a new anomaly repository
func NewAnomalyRepository(db *sqlite.DB, logger *zap.Logger) *AnomalyRepository {
	return &AnomalyRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a fixture anomaly
func (r *AnomalyRepository) Create(ctx context.Context, a *entity.AnomalyRecord) error {
	query := `
		INSERT INTO anomalies (id, category, vendor, invoice_no, severity, description, amount, anomaly_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		a.ID, string(a.Category), a.Vendor, a.InvoiceNo,
		string(a.Severity), a.Description, a.Amount, a.Date,
	)
	if err != nil {
		r.logger.Error("Failed to create anomaly",
			zap.Int("id", a.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create anomaly: %w", err)
	}
	return nil
}

// List returns anomalies in id order
func (r *AnomalyRepository) List(ctx context.Context, category entity.AnomalyCategory) ([]entity.AnomalyRecord, error) {
	query := `
		SELECT id, category, vendor, invoice_no, severity, description, amount, anomaly_date
		FROM anomalies
		WHERE ? = '' OR category = ?
		ORDER BY id
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, string(category), string(category))
	if err != nil {
		r.logger.Error("Failed to list anomalies",
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	anomalies := []entity.AnomalyRecord{}
	for rows.Next() {
		var (
			a                  entity.AnomalyRecord
			category, severity string
		)
		if err := rows.Scan(&a.ID, &category, &a.Vendor, &a.InvoiceNo, &severity,
			&a.Description, &a.Amount, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Category = entity.AnomalyCategory(category)
		a.Severity = entity.Severity(severity)
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}
	return anomalies, nil
}

// CountByCategory returns a count for every category, zero included
func (r *AnomalyRepository) CountByCategory(ctx context.Context) (map[entity.AnomalyCategory]int, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT category, COUNT(*) FROM anomalies GROUP BY category`)
	if err != nil {
		r.logger.Error("Failed to count anomalies", zap.Error(err))
		return nil, fmt.Errorf("failed to count anomalies: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.AnomalyCategory]int, len(entity.AnomalyCategories))
	for _, c := range entity.AnomalyCategories {
		counts[c] = 0
	}
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly count: %w", err)
		}
		counts[entity.AnomalyCategory(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomaly counts: %w", err)
	}
	return counts, nil
}

var _ port.AnomalyRepository = (*AnomalyRepository)(nil)
