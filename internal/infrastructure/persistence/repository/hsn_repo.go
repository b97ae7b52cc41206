package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

// HSNRepository implements port.HSNRepository
type HSNRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHSNRepository creates a new HSN mapping repository
func NewHSNRepository(db *sqlite.DB, logger *zap.Logger) *HSNRepository {
	return &HSNRepository{
		db:     db,
		logger: logger,
	}
}

// List returns mappings in the order codes were first added
func (r *HSNRepository) List(ctx context.Context) ([]entity.HSNMapping, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT code, description, rate, updated_on FROM hsn_mappings ORDER BY position`)
	if err != nil {
		r.logger.Error("Failed to list HSN mappings", zap.Error(err))
		return nil, fmt.Errorf("failed to list hsn mappings: %w", err)
	}
	defer rows.Close()

	mappings := []entity.HSNMapping{}
	for rows.Next() {
		var m entity.HSNMapping
		if err := rows.Scan(&m.Code, &m.Description, &m.Rate, &m.UpdatedOn); err != nil {
			return nil, fmt.Errorf("failed to scan hsn mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hsn mappings: %w", err)
	}
	return mappings, nil
}

// Upsert writes every mapping in one transaction. Existing codes keep their
// position; new codes are appended. It returns the number of new codes.
func (r *HSNRepository) Upsert(ctx context.Context, mappings []entity.HSNMapping) (int, error) {
	for i := range mappings {
		if err := mappings[i].Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	added := 0
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)
		for _, m := range mappings {
			res, err := exec.ExecContext(ctx, `
				UPDATE hsn_mappings SET description = ?, rate = ?, updated_on = ?
				WHERE code = ?
			`, m.Description, m.Rate, m.UpdatedOn, m.Code)
			if err != nil {
				return fmt.Errorf("failed to update hsn mapping %s: %w", m.Code, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				continue
			}

			_, err = exec.ExecContext(ctx, `
				INSERT INTO hsn_mappings (code, description, rate, updated_on, position)
				VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM hsn_mappings))
			`, m.Code, m.Description, m.Rate, m.UpdatedOn)
			if err != nil {
				return fmt.Errorf("failed to insert hsn mapping %s: %w", m.Code, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert HSN mappings",
			zap.Int("rows", len(mappings)),
			zap.Error(err))
		return 0, err
	}
	return added, nil
}

var _ port.HSNRepository = (*HSNRepository)(nil)
