package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// AnomalyRow is an anomaly with its category and severity treatment
type AnomalyRow struct {
	entity.AnomalyRecord
	Icon     string       `json:"icon"`
	Label    string       `json:"label"`
	Severity format.Badge `json:"severity_badge"`
}

// CategoryStat is one stat card of the anomaly center
type CategoryStat struct {
	Category entity.AnomalyCategory `json:"category"`
	Label    string                 `json:"label"`
	Icon     string                 `json:"icon"`
	Count    int                    `json:"count"`
}

// RiskyVendorRow is a top risky vendor with its risk badge
type RiskyVendorRow struct {
	entity.RiskyVendor
	Badge format.Badge `json:"badge"`
}

// AnomalyService serves the anomaly center
type AnomalyService struct {
	anomalies    port.AnomalyRepository
	riskyVendors []entity.RiskyVendor
	policy       format.RiskPolicy
	logger       Logger
}

// NewAnomalyService creates a new AnomalyService
func NewAnomalyService(anomalies port.AnomalyRepository, riskyVendors []entity.RiskyVendor, policy format.RiskPolicy, logger Logger) *AnomalyService {
	return &AnomalyService{
		anomalies:    anomalies,
		riskyVendors: riskyVendors,
		policy:       policy,
		logger:       orNop(logger),
	}
}

// ParseCategory accepts an empty value or "all" as no filter
func ParseCategory(s string) (entity.AnomalyCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", nil
	}
	c := entity.AnomalyCategory(s)
	if !c.IsValid() {
		return "", entity.NewValidationError("type", fmt.Sprintf("unknown value %q", s))
	}
	return c, nil
}

// List returns anomalies, optionally of one category
func (s *AnomalyService) List(ctx context.Context, category entity.AnomalyCategory) ([]AnomalyRow, error) {
	records, err := s.anomalies.List(ctx, category)
	if err != nil {
		s.logger.Error("Failed to list anomalies", "category", category, "error", err)
		return nil, err
	}

	rows := make([]AnomalyRow, 0, len(records))
	for _, a := range records {
		meta, _ := format.Category(a.Category)
		badge, _ := format.SeverityBadge(a.Severity)
		rows = append(rows, AnomalyRow{
			AnomalyRecord: a,
			Icon:          meta.Icon,
			Label:         meta.Label,
			Severity:      badge,
		})
	}
	return rows, nil
}

// Stats returns one card per category in display order
func (s *AnomalyService) Stats(ctx context.Context) ([]CategoryStat, error) {
	counts, err := s.anomalies.CountByCategory(ctx)
	if err != nil {
		s.logger.Error("Failed to count anomalies", "error", err)
		return nil, err
	}

	stats := make([]CategoryStat, 0, len(entity.AnomalyCategories))
	for _, c := range entity.AnomalyCategories {
		meta, _ := format.Category(c)
		stats = append(stats, CategoryStat{
			Category: c,
			Label:    meta.StatLabel,
			Icon:     meta.Icon,
			Count:    counts[c],
		})
	}
	return stats, nil
}

// RiskyVendors returns the top risky vendors with vendor-band badges
func (s *AnomalyService) RiskyVendors() []RiskyVendorRow {
	rows := make([]RiskyVendorRow, 0, len(s.riskyVendors))
	for _, v := range s.riskyVendors {
		rows = append(rows, RiskyVendorRow{
			RiskyVendor: v,
			Badge:       s.policy.VendorRiskBadge(v.RiskScore),
		})
	}
	return rows
}
