package service

import (
	"context"
	"fmt"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// ReportRow is a recent report with its type badge
type ReportRow struct {
	entity.ReportRecord
	Badge        format.Badge `json:"badge"`
	Downloadable bool         `json:"downloadable"`
}

// ReportsView is the reports page: recent reports and key insights
type ReportsView struct {
	Reports  []ReportRow      `json:"reports"`
	Insights []entity.Insight `json:"insights"`
}

// ReportService serves the reports view. Generation and download only
// acknowledge the request; no file is produced.
type ReportService struct {
	reports   port.ReportRepository
	insights  []entity.Insight
	publisher port.EventPublisher
	logger    Logger
}

// NewReportService creates a new ReportService
func NewReportService(reports port.ReportRepository, insights []entity.Insight, publisher port.EventPublisher, logger Logger) *ReportService {
	return &ReportService{
		reports:   reports,
		insights:  insights,
		publisher: publisher,
		logger:    orNop(logger),
	}
}

// List returns recent reports and the insight cards
func (s *ReportService) List(ctx context.Context) (*ReportsView, error) {
	records, err := s.reports.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err)
		return nil, err
	}

	rows := make([]ReportRow, 0, len(records))
	for _, r := range records {
		badge, _ := format.ReportTypeBadge(r.Type)
		rows = append(rows, ReportRow{
			ReportRecord: r,
			Badge:        badge,
			Downloadable: r.Status == entity.ReportStatusReady,
		})
	}
	return &ReportsView{
		Reports:  rows,
		Insights: append([]entity.Insight(nil), s.insights...),
	}, nil
}

// Generate validates the form and announces the request. Blank fields take the form defaults.
func (s *ReportService) Generate(ctx context.Context, sessionID string, req entity.GenerateReportRequest) (entity.GenerateReportRequest, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return req, err
	}

	s.logger.Info("Report generation requested",
		"session_id", sessionID,
		"type", req.Type,
		"date_range", req.DateRange)

	evt := event.NewEvent(event.TypeReportGenerationStarted, sessionID, "", map[string]interface{}{
		"type":       req.Type,
		"date_range": req.DateRange,
		"vendors":    req.Vendors,
		"risk_level": req.RiskLevel,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("Failed to publish report event", "error", err)
	}
	return req, nil
}

// Download acknowledges a download of a ready report in the given format
func (s *ReportService) Download(ctx context.Context, sessionID, reportID, rawFormat string) (*entity.ReportRecord, entity.ReportFormat, error) {
	f, err := entity.ParseReportFormat(rawFormat)
	if err != nil {
		return nil, "", err
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	if report.Status != entity.ReportStatusReady {
		return nil, "", entity.NewValidationError("report", fmt.Sprintf("%s is still generating", report.ID))
	}

	evt := event.NewEvent(event.TypeReportDownloaded, sessionID, report.ID, map[string]interface{}{
		"format": string(f),
		"title":  report.Title,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("Failed to publish report event", "error", err)
	}
	return report, f, nil
}
