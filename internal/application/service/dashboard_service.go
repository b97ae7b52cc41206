package service

import (
	"context"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// RiskCategoryCard is a top risk card with the count taken from the anomaly store
type RiskCategoryCard struct {
	entity.RiskCategory
	Anomalies int    `json:"anomalies"`
	Label     string `json:"label"`
}

// DashboardView is the landing page payload
type DashboardView struct {
	Stats          []entity.StatCard  `json:"stats"`
	RiskGauge      entity.RiskGauge   `json:"risk_gauge"`
	RiskCategories []RiskCategoryCard `json:"risk_categories"`
}

// DashboardService serves the landing view and the navigation
type DashboardService struct {
	dashboard entity.Dashboard
	anomalies port.AnomalyRepository
	logger    Logger
}

// NewDashboardService creates the service over the fixture dashboard
func NewDashboardService(dashboard entity.Dashboard, anomalies port.AnomalyRepository, logger Logger) *DashboardService {
	return &DashboardService{
		dashboard: dashboard,
		anomalies: anomalies,
		logger:    orNop(logger),
	}
}

// Get returns the stat cards, gauge and top risk categories
func (s *DashboardService) Get(ctx context.Context) (*DashboardView, error) {
	counts, err := s.anomalies.CountByCategory(ctx)
	if err != nil {
		s.logger.Error("Failed to count anomalies", "error", err)
		return nil, err
	}

	cards := make([]RiskCategoryCard, 0, len(s.dashboard.RiskCategories))
	for _, c := range s.dashboard.RiskCategories {
		meta, _ := format.Category(c.Category)
		cards = append(cards, RiskCategoryCard{
			RiskCategory: c,
			Anomalies:    counts[c.Category],
			Label:        meta.Label,
		})
	}

	return &DashboardView{
		Stats:          append([]entity.StatCard(nil), s.dashboard.Stats...),
		RiskGauge:      s.dashboard.RiskGauge,
		RiskCategories: cards,
	}, nil
}

// Routes returns the navigation in sidebar order
func (s *DashboardService) Routes() []entity.NavItem {
	return append([]entity.NavItem(nil), entity.Navigation...)
}
