package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
)

const reportColumns = `id, title, description, type, period, generated_date, status`

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlite.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a fixture report
func (r *ReportRepository) Create(ctx context.Context, rep *entity.ReportRecord) error {
	query := `INSERT INTO reports (` + reportColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rep.ID, rep.Title, rep.Description, string(rep.Type),
		rep.Period, rep.GeneratedDate, string(rep.Status),
	)
	if err != nil {
		r.logger.Error("Failed to create report",
			zap.String("id", rep.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// List returns reports in insertion order
func (r *ReportRepository) List(ctx context.Context) ([]entity.ReportRecord, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY rowid`)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []entity.ReportRecord{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// GetByID returns entity.ErrNotFound for an unknown id
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.ReportRecord, error) {
	rep, err := scanReport(r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get report by ID",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func scanReport(row rowScanner) (*entity.ReportRecord, error) {
	var (
		rep         entity.ReportRecord
		typ, status string
	)
	if err := row.Scan(&rep.ID, &rep.Title, &rep.Description, &typ,
		&rep.Period, &rep.GeneratedDate, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	rep.Type = entity.ReportType(typ)
	rep.Status = entity.ReportStatus(status)
	return &rep, nil
}

var _ port.ReportRepository = (*ReportRepository)(nil)
