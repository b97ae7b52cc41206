package service

import (
	"context"
	"fmt"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// VendorRow is a vendor performance row with its indicators
type VendorRow struct {
	entity.VendorRecord
	RiskBadge format.Badge `json:"risk_badge"`
	TrendIcon format.Badge `json:"trend_icon"`
	Accuracy  format.Badge `json:"accuracy_indicator"`
}

// VendorService serves vendor analytics
type VendorService struct {
	vendors  port.VendorRepository
	exporter port.SpreadsheetExporter
	policy   format.RiskPolicy
	logger   Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendors port.VendorRepository, exporter port.SpreadsheetExporter, policy format.RiskPolicy, logger Logger) *VendorService {
	return &VendorService{
		vendors:  vendors,
		exporter: exporter,
		policy:   policy,
		logger:   orNop(logger),
	}
}

// List returns the performance table
func (s *VendorService) List(ctx context.Context) ([]VendorRow, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list vendors", "error", err)
		return nil, err
	}

	rows := make([]VendorRow, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, VendorRow{
			VendorRecord: v,
			RiskBadge:    s.policy.VendorRiskBadge(v.RiskScore),
			TrendIcon:    format.TrendIcon(v.Trend),
			Accuracy:     format.AccuracyIndicator(v.AvgAccuracy),
		})
	}
	return rows, nil
}

// Summary returns the header figures: vendor count, spend in crores,
// rounded mean accuracy and the number of high-risk vendors
func (s *VendorService) Summary(ctx context.Context) (entity.VendorSummary, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return entity.VendorSummary{}, err
	}
	summary, err := format.SummarizeVendors(vendors, s.policy)
	if err != nil {
		s.logger.Error("Failed to summarize vendors", "error", err)
		return entity.VendorSummary{}, fmt.Errorf("summarize vendors: %w", err)
	}
	return summary, nil
}

// Distribution returns each vendor's rounded share of total spend
func (s *VendorService) Distribution(ctx context.Context) ([]entity.VendorShare, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	shares, err := format.SpendShares(vendors)
	if err != nil {
		s.logger.Error("Failed to compute spend shares", "error", err)
		return nil, fmt.Errorf("spend shares: %w", err)
	}
	return shares, nil
}

// Export renders the performance table and distribution as an XLSX workbook
func (s *VendorService) Export(ctx context.Context) ([]byte, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	shares, err := format.SpendShares(vendors)
	if err != nil {
		return nil, fmt.Errorf("spend shares: %w", err)
	}
	data, err := s.exporter.ExportVendors(vendors, shares)
	if err != nil {
		s.logger.Error("Failed to export vendors", "error", err)
		return nil, fmt.Errorf("export vendors: %w", err)
	}
	s.logger.Info("Vendors exported", "rows", len(vendors))
	return data, nil
}
